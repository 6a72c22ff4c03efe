package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents the transactions source table read by the runner
// when input.source is "postgres". The engine never writes to it.
type Transaction struct {
	ID              string          `gorm:"column:id;primaryKey;type:text"`
	CustomerID      string          `gorm:"column:customer_id;not null;index;type:text"`
	Timestamp       time.Time       `gorm:"column:timestamp;not null;index"`
	Amount          decimal.Decimal `gorm:"column:amount;not null;type:numeric(18,2)"`
	ProductCategory string          `gorm:"column:product_category;type:text"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// Customer represents the customers source dimension table
type Customer struct {
	ID               string    `gorm:"column:id;primaryKey;type:text"`
	Name             string    `gorm:"column:name;type:text"`
	RegistrationDate time.Time `gorm:"column:registration_date"`
	Location         string    `gorm:"column:location;type:text"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
