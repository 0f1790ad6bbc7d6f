package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart — попытка оформить заказ из пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrStockExceeded — в корзине уже столько единиц товара, сколько есть на складе.
	ErrStockExceeded = errors.New("not enough stock available")
	// ErrInsufficientStock — при оформлении остаток меньше запрошенного количества.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderSubmissionFailed — хранилище не приняло заказ; корзина сохраняется для повтора.
	ErrOrderSubmissionFailed = errors.New("order submission failed")
	// ErrStockReconciliationFailed — не удалось списать остаток по позиции уже созданного заказа.
	ErrStockReconciliationFailed = errors.New("stock reconciliation failed")
	// ErrCheckoutInProgress — для этой корзины уже выполняется оформление.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	// ErrCartIndexOutOfRange — позиция единицы вне границ корзины.
	ErrCartIndexOutOfRange = errors.New("cart index out of range")

	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// Ошибка пустого названия товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены.
	ErrPriceNegative = errors.New("price must be non-negative")
	// Ошибка отрицательного остатка.
	ErrStockNegative = errors.New("stock must be non-negative")

	// ErrCategoryNotFound возвращается, если категория не найдена.
	ErrCategoryNotFound = errors.New("category not found")
	// Ошибка пустого названия категории.
	ErrCategoryNameRequired = errors.New("category name is required")
	// ErrCategoryExists — категория с таким названием уже существует.
	ErrCategoryExists = errors.New("category already exists")
	// ErrCategoryInUse — на категорию ссылаются товары, удалять нельзя.
	ErrCategoryInUse = errors.New("cannot delete category with existing products")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// Ошибка отсутствующего имени покупателя.
	ErrCustomerNameRequired = errors.New("customer_name is required")
	// Ошибка отсутствующего email.
	ErrEmailRequired = errors.New("email is required")
	// Ошибка отсутствующего адреса доставки.
	ErrAddressRequired = errors.New("address is required")
	// Ошибка отсутствующего способа оплаты.
	ErrPaymentMethodRequired = errors.New("payment_method is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка пустого названия позиции.
	ErrItemNameRequired = errors.New("item name is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")

	// Ошибка отсутствующего пароля.
	ErrPasswordRequired = errors.New("password is required")
	// Ошибка отсутствующего логина администратора.
	ErrUsernameRequired = errors.New("username is required")
	// ErrEmailTaken — покупатель с таким email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already exists")
	// ErrUsernameTaken — администратор с таким логином уже существует.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrCustomerNotFound возвращается, если покупатель не найден.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrAdminNotFound возвращается, если администратор не найден.
	ErrAdminNotFound = errors.New("admin user not found")
	// ErrInvalidCredentials — неверная пара логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// StockError описывает нехватку остатка по конкретному товару.
// Err — ErrStockExceeded или ErrInsufficientStock.
type StockError struct {
	Err         error
	ProductID   int64
	ProductName string
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%v for %s: available %d", e.Err, e.ProductName, e.Available)
}

func (e *StockError) Unwrap() error {
	return e.Err
}

// NewStockError создаёт StockError для товара.
func NewStockError(kind error, product Product) *StockError {
	return &StockError{
		Err:         kind,
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   product.Stock,
	}
}

// IsValidation сообщает, что ошибка вызвана некорректными входными данными.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var validationErrors = []error{
	ErrProductNameRequired,
	ErrPriceNegative,
	ErrStockNegative,
	ErrCategoryNameRequired,
	ErrCustomerNameRequired,
	ErrEmailRequired,
	ErrAddressRequired,
	ErrPaymentMethodRequired,
	ErrItemsRequired,
	ErrItemNameRequired,
	ErrItemQtyInvalid,
	ErrItemPriceInvalid,
	ErrTotalMismatch,
	ErrPasswordRequired,
	ErrUsernameRequired,
}
