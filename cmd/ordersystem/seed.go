package main

import (
	"time"

	"github.com/remyvnkhiemtruong/12a6/internal/account"
	"github.com/remyvnkhiemtruong/12a6/internal/catalog"
	"github.com/remyvnkhiemtruong/12a6/internal/voucher"
)

// Demo fixtures stand in for the catalog/account services until the
// admin backoffice is wired up.
// TODO: replace with the backoffice catalog once its API is stable.

func demoProducts() []*catalog.Product {
	return []*catalog.Product{
		{
			ID: "tra-sua-tran-chau", Name: "Trà sữa trân châu",
			Price: 25000, CurrentStock: 80, LowStockThreshold: 10,
			IsAvailable: true, PrepMinutes: 5, KitchenZone: "drinks",
			HappyHour: &catalog.HappyHour{Price: 20000, Start: "14:00", End: "16:00", Active: true},
		},
		{
			ID: "tra-dao-cam-sa", Name: "Trà đào cam sả",
			Price: 30000, CurrentStock: 60, LowStockThreshold: 10,
			IsAvailable: true, PrepMinutes: 6, KitchenZone: "drinks",
		},
		{
			ID: "banh-trang-tron", Name: "Bánh tráng trộn",
			Price: 15000, CurrentStock: 40, LowStockThreshold: 5,
			IsAvailable: true, PrepMinutes: 8, KitchenZone: "snacks",
		},
		{
			ID: "khoai-tay-chien", Name: "Khoai tây chiên",
			Price: 20000, CurrentStock: 50, LowStockThreshold: 5,
			IsAvailable: true, PrepMinutes: 10, KitchenZone: "snacks",
		},
	}
}

func demoVouchers() []*voucher.Voucher {
	now := time.Now()
	return []*voucher.Voucher{
		{
			Code:          "SALE10",
			DiscountType:  voucher.Percentage,
			DiscountValue: 10,
			MaxDiscount:   5000,
			MinOrderValue: 20000,
			PerUserLimit:  1,
			ValidFrom:     now.AddDate(0, -1, 0),
			ValidUntil:    now.AddDate(0, 1, 0),
			IsActive:      true,
		},
		{
			Code:          "FREESHIP",
			DiscountType:  voucher.Fixed,
			DiscountValue: 10000,
			MinOrderValue: 50000,
			UsageLimit:    100,
			ValidFrom:     now.AddDate(0, -1, 0),
			ValidUntil:    now.AddDate(0, 1, 0),
			IsActive:      true,
		},
	}
}

func demoAccounts() []*account.Account {
	return []*account.Account{
		{ID: "acc-lan", DisplayName: "Lan", Phone: "0912345678", IsVIP: true},
		{ID: "acc-co-ha", DisplayName: "Cô Hà", Phone: "0987654321", IsTeacher: true},
	}
}
