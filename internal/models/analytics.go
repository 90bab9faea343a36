package models

import "github.com/shopspring/decimal"

type Analytics struct {
	ProductCount int64           `json:"productCount"`
	TotalOrders  int64           `json:"totalOrders"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}
