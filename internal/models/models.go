package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrMalformedResponse is returned when a backend payload lacks a required field
var ErrMalformedResponse = errors.New("malformed response")

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformedResponse, field)
}

// User types known to the backend
const (
	UserTypeRegular = "regular"
	UserTypeStudent = "student"
	UserTypeFaculty = "faculty"
)

// StudentInfo is the student extension of a user account
type StudentInfo struct {
	EnrollmentNo string `json:"EnrollmentNo"`
	Course       string `json:"Course"`
	Batch        string `json:"Batch"`
	EmailID      string `json:"EmailID,omitempty"`
}

// FacultyInfo is the faculty extension of a user account
type FacultyInfo struct {
	FacultyID   string `json:"FacultyID"`
	Department  string `json:"Department"`
	Designation string `json:"Designation"`
	EmailID     string `json:"EmailID,omitempty"`
}

// UserProfile is the authenticated shopper kept in the session
type UserProfile struct {
	EmailID     string       `json:"EmailID"`
	FirstName   string       `json:"FirstName"`
	LastName    string       `json:"LastName"`
	UserType    string       `json:"UserType"`
	StudentInfo *StudentInfo `json:"StudentInfo,omitempty"`
	FacultyInfo *FacultyInfo `json:"FacultyInfo,omitempty"`
}

// Normalize returns the canonical stored shape of the profile
func (u UserProfile) Normalize() UserProfile {
	if u.UserType == "" {
		u.UserType = UserTypeRegular
	}
	return u
}

func (u *UserProfile) Validate() error {
	if strings.TrimSpace(u.EmailID) == "" {
		return missing("EmailID")
	}
	return nil
}

// OrderID identifies an order. The backend emits integers; the client treats it as opaque text.
type OrderID string

func (id OrderID) String() string { return string(id) }

// UnmarshalJSON accepts both JSON numbers and strings
func (id *OrderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OrderID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	*id = OrderID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so the backend's integer fields accept them
func (id OrderID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Seller is a user offering a product
type Seller struct {
	EmailID   string `json:"EmailID"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Stock     int    `json:"Stock"`
}

// Product represents a catalog entry as served by the backend
type Product struct {
	PID          string   `json:"PID"`
	ProductName  string   `json:"ProductName"`
	Description  string   `json:"Description"`
	Price        float64  `json:"Price"`
	PrimaryImage *string  `json:"PrimaryImage,omitempty"`
	TotalStock   *int     `json:"TotalStock,omitempty"`
	SellerCount  *int     `json:"SellerCount,omitempty"`
	AvgRating    *float64 `json:"AvgRating,omitempty"`
	ReviewCount  *int     `json:"ReviewCount,omitempty"`
	Sellers      []Seller `json:"Sellers,omitempty"`
}

func (p *Product) Validate() error {
	if p.PID == "" {
		return missing("PID")
	}
	return nil
}

// ProductFilters are the catalog query options
type ProductFilters struct {
	CategoryID int
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string // name, price_asc, price_desc, newest
	Search     string
}

// CartLine is one product in the shopping cart
type CartLine struct {
	PID          string   `json:"PID"`
	ProductName  string   `json:"ProductName"`
	Description  string   `json:"Description"`
	Price        float64  `json:"Price"`
	PrimaryImage *string  `json:"PrimaryImage,omitempty"`
	TotalStock   *int     `json:"TotalStock,omitempty"`
	SellerCount  *int     `json:"SellerCount,omitempty"`
	AvgRating    *float64 `json:"AvgRating,omitempty"`
	ReviewCount  *int     `json:"ReviewCount,omitempty"`
	Sellers      []Seller `json:"Sellers,omitempty"`
	Quantity     int      `json:"quantity"`
}

// NewCartLine copies the product as listed into a line with quantity 1
func NewCartLine(p Product) CartLine {
	return CartLine{
		PID:          p.PID,
		ProductName:  p.ProductName,
		Description:  p.Description,
		Price:        p.Price,
		PrimaryImage: p.PrimaryImage,
		TotalStock:   p.TotalStock,
		SellerCount:  p.SellerCount,
		AvgRating:    p.AvgRating,
		ReviewCount:  p.ReviewCount,
		Sellers:      slices.Clone(p.Sellers),
		Quantity:     1,
	}
}

// Listing is a seller's stock of a product
type Listing struct {
	PID         string  `json:"PID"`
	ProductName string  `json:"ProductName"`
	Description string  `json:"Description"`
	Price       float64 `json:"Price"`
	Stock       int     `json:"Stock"`
}

// ListingRequest adds or updates a listing
type ListingRequest struct {
	EmailID string `json:"EmailID"`
	PID     string `json:"PID"`
	Stock   int    `json:"Stock"`
}

// RemoveListingResponse reports what the backend did with the product
type RemoveListingResponse struct {
	Message         string `json:"message"`
	ProductDeleted  bool   `json:"product_deleted"`
	HasOrderHistory bool   `json:"has_order_history"`
}

// OrderItem is one line of a placed order
type OrderItem struct {
	PID         string  `json:"PID"`
	OrderQty    int     `json:"Order_Qty"`
	ProductName string  `json:"ProductName"`
	Description string  `json:"Description"`
	Price       float64 `json:"Price"`
}

// Order is a placed order with its lines
type Order struct {
	OrderID   OrderID     `json:"OrderID"`
	OrderDate string      `json:"OrderDate"`
	EmailID   string      `json:"EmailID"`
	Items     []OrderItem `json:"Items"`
	Total     float64     `json:"Total"`
}

func (o *Order) Validate() error {
	if o.OrderID == "" {
		return missing("OrderID")
	}
	return nil
}

// Category groups products
type Category struct {
	CategoryID   int    `json:"CategoryID"`
	CategoryName string `json:"CategoryName"`
}

// ProductImage is an image attached to a product
type ProductImage struct {
	ImageID      int    `json:"ImageID"`
	PID          string `json:"PID"`
	ImageURL     string `json:"ImageURL"`
	DisplayOrder int    `json:"DisplayOrder"`
}

// ImageOrder sets the display position of one image
type ImageOrder struct {
	ImageID      int `json:"ImageID"`
	DisplayOrder int `json:"DisplayOrder"`
}

// Feedback is a product review
type Feedback struct {
	FeedBackID int    `json:"FeedBackID"`
	Date       string `json:"Date"`
	Rating     int    `json:"Rating"`
	Review     string `json:"Review"`
	Upvotes    int    `json:"Upvotes"`
	EmailID    string `json:"EmailID"`
	FirstName  string `json:"FirstName,omitempty"`
	LastName   string `json:"LastName,omitempty"`
	PID        string `json:"PID,omitempty"`
}

// StockCheckItem is one line of a stock check
type StockCheckItem struct {
	PID      string `json:"PID"`
	Quantity int    `json:"Quantity"`
}

// StockCheckResult is the single-item stock answer
type StockCheckResult struct {
	PID        string `json:"PID"`
	Available  int    `json:"Available"`
	Requested  int    `json:"Requested"`
	Sufficient *bool  `json:"Sufficient"`
}

func (r *StockCheckResult) Validate() error {
	if r.Sufficient == nil {
		return missing("Sufficient")
	}
	return nil
}

// InsufficientItem names a product whose stock is short
type InsufficientItem struct {
	PID               string `json:"PID"`
	RequestedQuantity int    `json:"RequestedQuantity"`
	AvailableStock    int    `json:"AvailableStock"`
}

// BatchStockResult is the answer to a multi-item stock check
type BatchStockResult struct {
	AllSufficient     *bool              `json:"all_sufficient"`
	Items             []StockCheckResult `json:"items,omitempty"`
	InsufficientItems []InsufficientItem `json:"insufficient_items"`
}

func (r *BatchStockResult) Validate() error {
	if r.AllSufficient == nil {
		return missing("all_sufficient")
	}
	for _, item := range r.InsufficientItems {
		if item.PID == "" {
			return missing("insufficient_items[].PID")
		}
	}
	return nil
}

// Sufficient reports whether every requested quantity is available
func (r *BatchStockResult) Sufficient() bool {
	return r.AllSufficient != nil && *r.AllSufficient
}

// CreateOrderRequest opens an order for a buyer
type CreateOrderRequest struct {
	OrderDate string `json:"OrderDate"`
	EmailID   string `json:"EmailID"`
}

// CreateOrderResponse carries the new order id
type CreateOrderResponse struct {
	Message string  `json:"message"`
	OrderID OrderID `json:"OrderID"`
}

func (r *CreateOrderResponse) Validate() error {
	if r.OrderID == "" {
		return missing("OrderID")
	}
	return nil
}

// OrderDetailRequest adds one line to an order
type OrderDetailRequest struct {
	OrderID  OrderID `json:"OrderID"`
	PID      string  `json:"PID"`
	OrderQty int     `json:"Order_Qty"`
}

// PaymentInitiateRequest asks the backend to email an OTP
type PaymentInitiateRequest struct {
	EmailID string  `json:"EmailID"`
	Amount  float64 `json:"Amount"`
	OrderID OrderID `json:"OrderID"`
}

// OTPDispatch is returned when an OTP was (re)sent
type OTPDispatch struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	ExpiresIn int    `json:"expires_in"`
}

// VerifyPaymentRequest submits the OTP
type VerifyPaymentRequest struct {
	EmailID string  `json:"EmailID"`
	OTP     string  `json:"OTP"`
	OrderID OrderID `json:"OrderID"`
}

// PaymentReceipt is returned on successful verification
type PaymentReceipt struct {
	Message string  `json:"message"`
	OrderID OrderID `json:"order_id"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"status"`
}

// ResendOTPRequest uses the backend's snake_case field names
type ResendOTPRequest struct {
	EmailID string  `json:"email_id"`
	OrderID OrderID `json:"order_id"`
}

// OAuthProvider is an enabled external login provider
type OAuthProvider struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled,omitempty"`
	LoginURL    string `json:"login_url,omitempty"`
}

// OAuthProvidersResponse wraps the provider list
type OAuthProvidersResponse struct {
	Providers []OAuthProvider `json:"providers"`
}

func (r *OAuthProvidersResponse) Validate() error {
	for _, p := range r.Providers {
		if p.Name == "" {
			return missing("providers[].name")
		}
	}
	return nil
}

// RegisterUserRequest creates an account
type RegisterUserRequest struct {
	EmailID   string `json:"EmailID"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Password  string `json:"Password"`
}

// LoginRequest authenticates with a password
type LoginRequest struct {
	EmailID  string `json:"EmailID"`
	Password string `json:"Password"`
}

// NewProductRequest adds a product to the catalog; the backend generates PID when empty
type NewProductRequest struct {
	PID         string  `json:"PID,omitempty"`
	ProductName string  `json:"ProductName"`
	Description string  `json:"Description"`
	Price       float64 `json:"Price"`
}

// NewProductResponse carries the product id
type NewProductResponse struct {
	Message string `json:"message"`
	PID     string `json:"PID"`
}

func (r *NewProductResponse) Validate() error {
	if r.PID == "" {
		return missing("PID")
	}
	return nil
}

// ProductCategoryRequest assigns a category to a product
type ProductCategoryRequest struct {
	PID        string `json:"PID"`
	CategoryID int    `json:"CategoryID"`
}

// ImageUploadResponse carries the stored path of an uploaded file
type ImageUploadResponse struct {
	ImageURL string `json:"image_url"`
	Message  string `json:"message"`
}

func (r *ImageUploadResponse) Validate() error {
	if r.ImageURL == "" {
		return missing("image_url")
	}
	return nil
}

// NewImageRequest attaches an uploaded file to a product
type NewImageRequest struct {
	PID          string `json:"PID"`
	ImageURL     string `json:"ImageURL"`
	DisplayOrder int    `json:"DisplayOrder"`
}

// NewImageResponse carries the image id
type NewImageResponse struct {
	Message string `json:"message"`
	ImageID int    `json:"ImageID"`
}

// NewFeedbackRequest posts a review
type NewFeedbackRequest struct {
	FeedBackID int    `json:"FeedBackID"`
	Date       string `json:"Date"`
	Rating     int    `json:"Rating"`
	Review     string `json:"Review"`
	EmailID    string `json:"EmailID"`
	PID        string `json:"PID"`
}

// MessageResponse is the generic backend acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}
