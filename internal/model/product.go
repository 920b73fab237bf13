package model

import (
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

// Product is the canonical product record shared by local and remote sets.
type Product struct {
	ID                 int64    `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage,omitempty"`
	Rating             float64  `json:"rating,omitempty"`
	Stock              int      `json:"stock"`
	Brand              string   `json:"brand,omitempty"`
	Category           string   `json:"category"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images,omitempty"`
}

// DiscountedPrice returns the unit price after discount, rounded to cents.
func (p Product) DiscountedPrice() float64 {
	return RoundCents(p.Price * (1 - p.DiscountPercentage/100))
}

// RoundCents rounds v to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ProductInput is the payload of the admin create and edit forms.
type ProductInput struct {
	Title              string   `json:"title" validate:"required,notblank,max=200"`
	Description        string   `json:"description" validate:"max=4000"`
	Price              float64  `json:"price" validate:"gte=0"`
	DiscountPercentage float64  `json:"discountPercentage" validate:"gte=0,lte=100"`
	Rating             float64  `json:"rating" validate:"gte=0,lte=5"`
	Stock              int      `json:"stock" validate:"gte=0"`
	Brand              string   `json:"brand" validate:"max=100"`
	Category           string   `json:"category" validate:"required,notblank,max=100"`
	Thumbnail          string   `json:"thumbnail" validate:"omitempty,url"`
	Images             []string `json:"images" validate:"omitempty,max=20,dive,url"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func productValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate checks the input and returns a *errors.ValidationError keyed by json field name.
func (in ProductInput) Validate() error {
	err := productValidator().Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return shoperrors.NewValidationError("product", err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field() // images[2] for dive errors
		if _, exists := fields[name]; !exists {
			fields[name] = message(fe)
		}
	}
	return &shoperrors.ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "is too long (max " + fe.Param() + ")"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// Normalize trims text fields and lowercases the category.
func (in ProductInput) Normalize() ProductInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Thumbnail = strings.TrimSpace(in.Thumbnail)
	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	in.Images = images
	return in
}

// ToProduct builds a record with the given id from the input.
func (in ProductInput) ToProduct(id int64) Product {
	var images []string
	if len(in.Images) > 0 {
		images = append(images, in.Images...)
	}
	return Product{
		ID:                 id,
		Title:              in.Title,
		Description:        in.Description,
		Price:              in.Price,
		DiscountPercentage: in.DiscountPercentage,
		Rating:             in.Rating,
		Stock:              in.Stock,
		Brand:              in.Brand,
		Category:           in.Category,
		Thumbnail:          in.Thumbnail,
		Images:             images,
	}
}

// InputFrom returns the editable fields of p.
func InputFrom(p Product) ProductInput {
	return ProductInput{
		Title:              p.Title,
		Description:        p.Description,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		Rating:             p.Rating,
		Stock:              p.Stock,
		Brand:              p.Brand,
		Category:           p.Category,
		Thumbnail:          p.Thumbnail,
		Images:             p.Images,
	}
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// Query describes one reconciled listing request.
type Query struct {
	Page         int    `form:"page" json:"page"`
	ItemsPerPage int    `form:"limit" json:"itemsPerPage"`
	Category     string `form:"category" json:"category,omitempty"`
	SearchText   string `form:"q" json:"searchText,omitempty"`
}

// AllCategories is the sentinel category meaning "no filter".
const AllCategories = "all"

// HasCategory reports whether q filters by a concrete category.
func (q Query) HasCategory() bool {
	c := strings.TrimSpace(q.Category)
	return c != "" && !strings.EqualFold(c, AllCategories)
}

// HasSearch reports whether q carries search text.
func (q Query) HasSearch() bool {
	return strings.TrimSpace(q.SearchText) != ""
}
