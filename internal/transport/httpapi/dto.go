package httpapi

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (r categoryRequest) Validate() error {
	return r.toDomain().Validate()
}

func (r categoryRequest) toDomain() domain.Category {
	return domain.Category{Name: strings.TrimSpace(r.Name)}
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type productRequest struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Image      string          `json:"image"`
	CategoryID *int64          `json:"category_id"`
}

func (r productRequest) Validate() error {
	return r.toDomain(0).Validate()
}

func (r productRequest) toDomain(id int64) domain.Product {
	return domain.Product{
		ID:         id,
		Name:       strings.TrimSpace(r.Name),
		Price:      r.Price,
		Stock:      r.Stock,
		Image:      r.Image,
		CategoryID: r.CategoryID,
	}
}

type stockRequest struct {
	Stock int `json:"stock"`
}

func (r stockRequest) Validate() error {
	if r.Stock < 0 {
		return domain.ErrStockNegative
	}
	return nil
}

type productResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	Image        string  `json:"image,omitempty"`
	CategoryID   *int64  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
}

func newProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.InexactFloat64(),
		Stock:        p.Stock,
		Image:        p.Image,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
	}
}

type detailsRequest struct {
	CustomerName  string `json:"customer_name"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	PaymentMethod string `json:"payment_method"`
}

func (r detailsRequest) toDomain() domain.CheckoutDetails {
	return domain.CheckoutDetails{
		CustomerName:  strings.TrimSpace(r.CustomerName),
		Email:         strings.TrimSpace(r.Email),
		Address:       strings.TrimSpace(r.Address),
		PaymentMethod: strings.TrimSpace(r.PaymentMethod),
	}
}

type orderItemRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type orderRequest struct {
	detailsRequest
	Items []orderItemRequest `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// toDomain переносит заявленный итог как есть, чтобы хранилище сверило его с позициями.
func (r orderRequest) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.OrderItem{
			ProductName: strings.TrimSpace(item.Name),
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}
	order := domain.NewOrder(r.detailsRequest.toDomain(), items)
	order.Total = r.Total.Round(domain.MoneyScale)
	return order
}

func (r orderRequest) Validate() error {
	order := r.toDomain()
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

type orderItemResponse struct {
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type orderResponse struct {
	ID            int64               `json:"id"`
	CustomerName  string              `json:"customer_name"`
	Email         string              `json:"email"`
	Address       string              `json:"address"`
	PaymentMethod string              `json:"payment_method"`
	Total         float64             `json:"total"`
	Status        string              `json:"status"`
	OrderDate     time.Time           `json:"order_date"`
	Products      string              `json:"products"`
	Items         []orderItemResponse `json:"items"`
}

func newOrderItems(items []domain.OrderItem) []orderItemResponse {
	result := make([]orderItemResponse, 0, len(items))
	for _, item := range items {
		result = append(result, orderItemResponse{
			ProductName: item.ProductName,
			Price:       item.Price.InexactFloat64(),
			Quantity:    item.Quantity,
		})
	}
	return result
}

func newOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		Email:         o.Email,
		Address:       o.Address,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total.InexactFloat64(),
		Status:        string(o.Status),
		OrderDate:     o.CreatedAt,
		Products:      o.ProductNames(),
		Items:         newOrderItems(o.Items),
	}
}

type createOrderResponse struct {
	OrderID int64  `json:"orderId"`
	Message string `json:"message"`
}

type cartLineResponse struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	Stock     int     `json:"stock"`
}

type cartResponse struct {
	Lines []cartLineResponse `json:"lines"`
	Units int                `json:"units"`
	Total float64            `json:"total"`
}

func newCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{
		Lines: make([]cartLineResponse, 0),
		Units: c.Len(),
		Total: c.Total().InexactFloat64(),
	}
	for line := range c.Groups() {
		resp.Lines = append(resp.Lines, cartLineResponse{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price.InexactFloat64(),
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal.InexactFloat64(),
			Stock:     line.Product.Stock,
		})
	}
	return resp
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id"`
}

type unreconciledResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Error       string `json:"error"`
}

type checkoutResponse struct {
	OrderID      int64                  `json:"orderId"`
	Status       string                 `json:"status"`
	Total        float64                `json:"total"`
	Items        []orderItemResponse    `json:"items"`
	Unreconciled []unreconciledResponse `json:"unreconciled,omitempty"`
	CartRetained bool                   `json:"cart_retained,omitempty"`
}

func newCheckoutResponse(result checkout.Result) checkoutResponse {
	resp := checkoutResponse{
		OrderID: result.Order.ID,
		Status:  string(result.Order.Status),
		Total:   result.Order.Total.InexactFloat64(),
		Items:   newOrderItems(result.Order.Items),

		CartRetained: result.CartRetained,
	}
	for _, failure := range result.Unreconciled {
		resp.Unreconciled = append(resp.Unreconciled, unreconciledResponse{
			ProductID:   failure.ProductID,
			ProductName: failure.ProductName,
			Quantity:    failure.Quantity,
			Error:       failure.Err.Error(),
		})
	}
	return resp
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type adminLoginResponse struct {
	Success bool         `json:"success"`
	User    userResponse `json:"user"`
	Token   string       `json:"token"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

func (r signupRequest) toDomain() domain.Signup {
	return domain.Signup{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Address:  r.Address,
		Password: r.Password,
	}
}

type customerLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type customerResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func newCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
}

type customerAuthResponse struct {
	Success  bool             `json:"success"`
	Customer customerResponse `json:"customer"`
	Token    string           `json:"token,omitempty"`
	Message  string           `json:"message,omitempty"`
}
