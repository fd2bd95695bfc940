// Package superstore decodes superstore order lines from CSV and loads them
// into the dataset engine.
package superstore

import "time"

// Record is one order line. Field names match the collection schema given to
// the pipeline generator, so the bson tags must not drift from it.
type Record struct {
	RowID        int32     `bson:"rowId" json:"rowId"`
	OrderID      string    `bson:"orderId" json:"orderId"`
	OrderDate    time.Time `bson:"orderDate" json:"orderDate"`
	ShipDate     time.Time `bson:"shipDate" json:"shipDate"`
	ShipMode     string    `bson:"shipMode" json:"shipMode"`
	CustomerID   string    `bson:"customerId" json:"customerId"`
	CustomerName string    `bson:"customerName" json:"customerName"`
	Segment      string    `bson:"segment" json:"segment"`
	Country      string    `bson:"country" json:"country"`
	City         string    `bson:"city" json:"city"`
	State        string    `bson:"state" json:"state"`
	PostalCode   string    `bson:"postalCode" json:"postalCode"`
	Region       string    `bson:"region" json:"region"`
	ProductID    string    `bson:"productId" json:"productId"`
	Category     string    `bson:"category" json:"category"`
	SubCategory  string    `bson:"subCategory" json:"subCategory"`
	ProductName  string    `bson:"productName" json:"productName"`
	Sales        float64   `bson:"sales" json:"sales"`
	Quantity     int32     `bson:"quantity" json:"quantity"`
	Discount     float64   `bson:"discount" json:"discount"`
	Profit       float64   `bson:"profit" json:"profit"`
}

// Column headers as they appear in the superstore export.
const (
	ColRowID        = "Row ID"
	ColOrderID      = "Order ID"
	ColOrderDate    = "Order Date"
	ColShipDate     = "Ship Date"
	ColShipMode     = "Ship Mode"
	ColCustomerID   = "Customer ID"
	ColCustomerName = "Customer Name"
	ColSegment      = "Segment"
	ColCountry      = "Country"
	ColCity         = "City"
	ColState        = "State"
	ColPostalCode   = "Postal Code"
	ColRegion       = "Region"
	ColProductID    = "Product ID"
	ColCategory     = "Category"
	ColSubCategory  = "Sub-Category"
	ColProductName  = "Product Name"
	ColSales        = "Sales"
	ColQuantity     = "Quantity"
	ColDiscount     = "Discount"
	ColProfit       = "Profit"
)

// Columns lists every required header.
var Columns = []string{
	ColRowID, ColOrderID, ColOrderDate, ColShipDate, ColShipMode,
	ColCustomerID, ColCustomerName, ColSegment, ColCountry, ColCity,
	ColState, ColPostalCode, ColRegion, ColProductID, ColCategory,
	ColSubCategory, ColProductName, ColSales, ColQuantity, ColDiscount,
	ColProfit,
}
