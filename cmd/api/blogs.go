package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopcms/internal/catalog"
)

var blogResource = resource{
	kind:         catalog.KindBlog,
	label:        "Blog",
	plural:       "Blogs",
	recentFields: []string{"title", "thumbnail", "createdAt"},
}

func (app *application) blogRoutes(r chi.Router) {
	r.Post("/create", app.createBlogHandler)
	r.Get("/get/all", app.listBlogsHandler)
	r.Get("/get/recent", app.recentBlogsHandler)
	r.Patch("/update/{id}", app.updateBlogHandler)
	r.Delete("/delete/{id}", app.deleteBlogHandler)
	r.Get("/{id}", app.getBlogHandler)
	r.Get("/", app.searchBlogsHandler)
}

// CreateBlog godoc
//
//	@Summary	Create a blog post
//	@Tags		Blogs
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		title			formData	string	true	"Title (3-50 characters)"
//	@Param		content			formData	string	true	"Content (10-5000 characters)"
//	@Param		isPublic		formData	boolean	false	"Visible on the storefront (default true)"
//	@Param		seoTitle		formData	string	false	"SEO title"
//	@Param		seoDescription	formData	string	false	"SEO description"
//	@Param		seoKeywords		formData	string	false	"SEO keywords"
//	@Param		thumbnail		formData	file	true	"Thumbnail"
//	@Param		detailImage		formData	file	false	"Image shown on the detail page"
//	@Success	201				{object}	envelope	"Blog id"
//	@Failure	400				{object}	envelope
//	@Failure	500				{object}	envelope
//	@Router		/blogs/create [post]
func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	app.createItem(w, r, blogResource)
}

// GetBlog godoc
//
//	@Summary	Fetch a blog post
//	@Tags		Blogs
//	@Produce	json
//	@Param		id	path		string	true	"Blog ID"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/blogs/{id} [get]
func (app *application) getBlogHandler(w http.ResponseWriter, r *http.Request) {
	app.getItem(w, r, blogResource)
}

// ListBlogs godoc
//
//	@Summary	List blog posts, newest first
//	@Tags		Blogs
//	@Produce	json
//	@Param		page	query		int	false	"Page number"
//	@Param		limit	query		int	false	"Items per page (max 30)"
//	@Success	200		{object}	envelope
//	@Failure	404		{object}	envelope
//	@Router		/blogs/get/all [get]
func (app *application) listBlogsHandler(w http.ResponseWriter, r *http.Request) {
	app.listItems(w, r, blogResource)
}

// RecentBlogs godoc
//
//	@Summary	Four most recent blog posts
//	@Tags		Blogs
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/blogs/get/recent [get]
func (app *application) recentBlogsHandler(w http.ResponseWriter, r *http.Request) {
	app.recentItems(w, r, blogResource)
}

// UpdateBlog godoc
//
//	@Summary	Update a blog post
//	@Tags		Blogs
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id			path		string	true	"Blog ID"
//	@Param		title		formData	string	false	"Title"
//	@Param		content		formData	string	false	"Content"
//	@Param		thumbnail	formData	file	false	"Replacement thumbnail"
//	@Success	200			{object}	envelope	"Blog id"
//	@Failure	400			{object}	envelope
//	@Failure	404			{object}	envelope
//	@Failure	500			{object}	envelope
//	@Router		/blogs/update/{id} [patch]
func (app *application) updateBlogHandler(w http.ResponseWriter, r *http.Request) {
	app.updateItem(w, r, blogResource)
}

// DeleteBlog godoc
//
//	@Summary	Delete a blog post and its images
//	@Tags		Blogs
//	@Produce	json
//	@Param		id	path		string	true	"Blog ID"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Failure	500	{object}	envelope
//	@Router		/blogs/delete/{id} [delete]
func (app *application) deleteBlogHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteItem(w, r, blogResource)
}

// SearchBlogs godoc
//
//	@Summary	Search blog posts by title
//	@Tags		Blogs
//	@Produce	json
//	@Param		search	query		string	true	"Case-insensitive substring of the title"
//	@Success	200		{object}	envelope
//	@Failure	400		{object}	envelope
//	@Failure	404		{object}	envelope
//	@Router		/blogs [get]
func (app *application) searchBlogsHandler(w http.ResponseWriter, r *http.Request) {
	app.searchItems(w, r, blogResource)
}
