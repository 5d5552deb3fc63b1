package model

// 売上集計の結果。すべて読み取り専用。

type DailySales struct {
	Date    string `gorm:"column:day" bson:"_id" json:"date"`
	Orders  int64  `bson:"orders" json:"orders"`
	Revenue int64  `bson:"revenue" json:"revenue"`
}

type StatusCount struct {
	Status OrderStatus `bson:"_id" json:"status"`
	Count  int64       `bson:"count" json:"count"`
}

type SalesOverview struct {
	TotalRevenue      int64         `json:"totalRevenue"`
	TotalOrders       int64         `json:"totalOrders"`
	AverageOrderValue int64         `json:"averageOrderValue"`
	OrdersByStatus    []StatusCount `json:"ordersByStatus"`
	Daily             []DailySales  `json:"daily"`
}

type ProductSales struct {
	ProductID string       `json:"productId"`
	UnitsSold int64        `json:"unitsSold"`
	Revenue   int64        `json:"revenue"`
	Orders    int64        `json:"orders"`
	Daily     []DailySales `json:"daily"`
}

type TopProduct struct {
	ProductID string `bson:"_id" json:"productId"`
	Name      string `bson:"name" json:"name"`
	SKU       string `bson:"sku" json:"sku"`
	UnitsSold int64  `bson:"unitsSold" json:"unitsSold"`
	Revenue   int64  `bson:"revenue" json:"revenue"`
}
