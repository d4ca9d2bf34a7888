package domain

import "time"

// Payment methods form a closed set; each is a separate Provider
// implementation dispatched through one interface.
const (
	PayMethodManual  = "manual"
	PayMethodStars   = "stars"
	PayMethodGateway = "gateway"
)

// Payment statuses.
const (
	PayStatusPending  = "pending"
	PayStatusApproved = "approved"
	PayStatusRejected = "rejected"
)

// CreditPackage is a purchasable credit bundle.
type CreditPackage struct {
	PackageID string `json:"id"`
	Credits   int    `json:"credits"`
	Price     int    `json:"price"`
	Currency  string `json:"currency"`
	Popular   bool   `json:"popular,omitempty"`
}

// Payment is a pending or settled credit purchase.
type Payment struct {
	PaymentID string    `json:"id" dynamodbav:"payment_id"`
	OwnerID   int64     `json:"owner_id" dynamodbav:"owner_id"`
	Method    string    `json:"method" dynamodbav:"method"`
	PackageID string    `json:"package_id" dynamodbav:"package_id"`
	Credits   int       `json:"credits" dynamodbav:"credits"`
	Price     int       `json:"price" dynamodbav:"price"`
	Status    string    `json:"status" dynamodbav:"status"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// PaymentInstructions is what the buyer receives after creating a payment.
type PaymentInstructions struct {
	PaymentID    string `json:"payment_id"`
	Method       string `json:"method"`
	Instructions string `json:"instructions"`
	PaymentLink  string `json:"payment_link,omitempty"`
	StarsAmount  int    `json:"stars_amount,omitempty"`
}

// DefaultPackages are the stock credit bundles.
var DefaultPackages = []CreditPackage{
	{PackageID: "pkg_10", Credits: 10, Price: 50, Currency: "INR"},
	{PackageID: "pkg_25", Credits: 25, Price: 100, Currency: "INR", Popular: true},
	{PackageID: "pkg_50", Credits: 50, Price: 180, Currency: "INR"},
	{PackageID: "pkg_100", Credits: 100, Price: 300, Currency: "INR"},
}

// PackageByID returns the package with the given id, or nil.
func PackageByID(id string) *CreditPackage {
	for i := range DefaultPackages {
		if DefaultPackages[i].PackageID == id {
			return &DefaultPackages[i]
		}
	}
	return nil
}
