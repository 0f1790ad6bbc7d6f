package domain

import "context"

// CatalogRepository описывает требования к хранилищу категорий и товаров.
type CatalogRepository interface {
	// ListCategories возвращает категории, отсортированные по названию.
	ListCategories(ctx context.Context) ([]Category, error)
	// CreateCategory сохраняет категорию; ErrCategoryExists при дубликате названия.
	CreateCategory(ctx context.Context, category Category) (Category, error)
	// DeleteCategory удаляет категорию; ErrCategoryInUse, если на неё ссылаются товары.
	DeleteCategory(ctx context.Context, id int64) error

	// ListProducts возвращает товары по возрастанию ID с заполненным CategoryName.
	ListProducts(ctx context.Context) ([]Product, error)
	// GetProduct возвращает товар или ErrProductNotFound.
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, product Product) (Product, error)
	UpdateProduct(ctx context.Context, product Product) error
	DeleteProduct(ctx context.Context, id int64) error
	// SetStock перезаписывает остаток товара абсолютным значением.
	SetStock(ctx context.Context, id int64, stock int) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет заказ вместе с позициями одной транзакцией и возвращает его с ID и CreatedAt.
	Create(ctx context.Context, order Order) (Order, error)
	// List возвращает заказы от новых к старым вместе с позициями.
	List(ctx context.Context) ([]Order, error)
	// MarkInventoryUnreconciled помечает заказ, остатки по которому списаны не полностью.
	MarkInventoryUnreconciled(ctx context.Context, id int64) error
}

// AdminRepository хранит учётные записи администраторов.
type AdminRepository interface {
	// CreateAdmin сохраняет администратора; ErrUsernameTaken при дубликате.
	CreateAdmin(ctx context.Context, admin AdminUser) (AdminUser, error)
	// GetAdminByUsername возвращает администратора или ErrAdminNotFound.
	GetAdminByUsername(ctx context.Context, username string) (AdminUser, error)
}

// CustomerRepository хранит зарегистрированных покупателей.
type CustomerRepository interface {
	// CreateCustomer сохраняет покупателя; ErrEmailTaken при дубликате email.
	CreateCustomer(ctx context.Context, customer Customer) (Customer, error)
	// GetCustomerByEmail возвращает покупателя или ErrCustomerNotFound.
	GetCustomerByEmail(ctx context.Context, email string) (Customer, error)
}
