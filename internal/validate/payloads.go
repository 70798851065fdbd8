package validate

import "shopcms/internal/catalog"

// Payload structs are decoded from form values by their schema tags and
// checked in field order. Update payloads use pointers so that an absent
// field stays nil and is left untouched.

type productCreate struct {
	Name               string   `schema:"name" validate:"required,min=3,max=500"`
	ProductDescription *string  `schema:"productDescription"`
	ProductDetail      string   `schema:"productDetail" validate:"required"`
	AffiliateLink      string   `schema:"affiliateLink" validate:"required,url"`
	Category           string   `schema:"category" validate:"required"`
	Size               string   `schema:"size" validate:"required,min=1"`
	SellingPrice       *float64 `schema:"sellingPrice" validate:"required,gt=0"`
	OriginalPrice      *float64 `schema:"originalPrice" validate:"required,gt=0"`
	Discount           *float64 `schema:"discount" validate:"required,gte=0,lte=100"`
	IsPublic           *bool    `schema:"isPublic"`
}

type productUpdate struct {
	Name               *string  `schema:"name" validate:"omitnil,min=3,max=500"`
	ProductDescription *string  `schema:"productDescription"`
	ProductDetail      *string  `schema:"productDetail" validate:"omitnil,min=1"`
	AffiliateLink      *string  `schema:"affiliateLink" validate:"omitnil,url"`
	Category           *string  `schema:"category" validate:"omitnil,min=1"`
	Size               *string  `schema:"size" validate:"omitnil,min=1"`
	SellingPrice       *float64 `schema:"sellingPrice" validate:"omitnil,gt=0"`
	OriginalPrice      *float64 `schema:"originalPrice" validate:"omitnil,gt=0"`
	Discount           *float64 `schema:"discount" validate:"omitnil,gte=0,lte=100"`
	IsPublic           *bool    `schema:"isPublic"`
}

type categoryCreate struct {
	Name     string `schema:"name" validate:"required,min=3,max=50"`
	IsPublic *bool  `schema:"isPublic"`
}

type categoryUpdate struct {
	Name     *string `schema:"name" validate:"omitnil,min=3,max=50"`
	IsPublic *bool   `schema:"isPublic"`
}

type blogCreate struct {
	Title          string  `schema:"title" validate:"required,min=3,max=50"`
	Content        string  `schema:"content" validate:"required,min=10,max=5000"`
	IsPublic       *bool   `schema:"isPublic"`
	SeoTitle       *string `schema:"seoTitle"`
	SeoDescription *string `schema:"seoDescription"`
	SeoKeywords    *string `schema:"seoKeywords"`
}

type blogUpdate struct {
	Title          *string `schema:"title" validate:"omitnil,min=3,max=50"`
	Content        *string `schema:"content" validate:"omitnil,min=10,max=5000"`
	IsPublic       *bool   `schema:"isPublic"`
	SeoTitle       *string `schema:"seoTitle"`
	SeoDescription *string `schema:"seoDescription"`
	SeoKeywords    *string `schema:"seoKeywords"`
}

type bannerPayload struct{}

type collaborationCreate struct {
	FirstName   string  `schema:"firstName" validate:"required"`
	LastName    string  `schema:"lastName" validate:"required"`
	Email       string  `schema:"email" validate:"required,email"`
	PhoneNumber string  `schema:"phoneNumber" validate:"required"`
	Company     *string `schema:"company"`
	Message     string  `schema:"message" validate:"required"`
}

type payloads struct {
	create func() any
	update func() any // nil when the kind cannot be updated
}

var registry = map[catalog.Kind]payloads{
	catalog.KindProduct: {
		create: func() any { return &productCreate{} },
		update: func() any { return &productUpdate{} },
	},
	catalog.KindCategory: {
		create: func() any { return &categoryCreate{} },
		update: func() any { return &categoryUpdate{} },
	},
	catalog.KindBlog: {
		create: func() any { return &blogCreate{} },
		update: func() any { return &blogUpdate{} },
	},
	catalog.KindBanner: {
		create: func() any { return &bannerPayload{} },
		update: func() any { return &bannerPayload{} },
	},
	catalog.KindCollaboration: {
		create: func() any { return &collaborationCreate{} },
	},
}
