package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"souvenir/internal/domain/books"

	"github.com/go-chi/chi/v5"
)

const maxArchiveBytes = 50 << 20 // 50mb conversation export

// GenerateBookResponse adds the download location to the stored metadata.
type GenerateBookResponse struct {
	*books.Book
	BookURL string `json:"bookUrl"`
	Message string `json:"message"`
}

// generateBookHandler godoc
//
//	@Summary		Generate a memory book
//	@Description	Takes a zip export of conversations plus title, format and style as multipart form fields and renders the book
//	@Tags			books
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Conversation export (.zip)"
//	@Param			title	formData	string	false	"Book title"
//	@Param			format	formData	string	true	"pdf, epub or docx"
//	@Param			style	formData	string	true	"modern, classic, elegant or minimalist"
//	@Success		201		{object}	GenerateBookResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/books/generate [post]
func (app *application) generateBookHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxArchiveBytes)
	if err := r.ParseMultipartForm(maxArchiveBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("file is required"))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		app.badRequestResponse(w, r, errors.New("only .zip conversation exports are accepted"))
		return
	}

	title := r.FormValue("title")
	format := r.FormValue("format")
	style := r.FormValue("style")

	user := getUserFromContext(r)
	ctx := r.Context()

	result, err := app.books.Generate(ctx, user.ID, title, format, style, file, header.Size)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book := &books.Book{
		UserID:    user.ID,
		Title:     title,
		Format:    strings.ToLower(format),
		Style:     strings.ToLower(style),
		Pages:     result.Pages,
		ObjectKey: result.ObjectKey,
	}
	if book.Title == "" {
		book.Title = "Mon Livre Souvenir"
	}

	if err := app.store.Books.Create(ctx, book); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("book stored", "book_id", book.BookID, "user_id", user.ID, "pages", book.Pages)

	resp := GenerateBookResponse{
		Book:    book,
		BookURL: "/v1/books/download/" + book.BookID,
		Message: fmt.Sprintf("Livre généré : %d pages", book.Pages),
	}

	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) downloadBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	user := getUserFromContext(r)
	ctx := r.Context()

	book, err := app.store.Books.GetByBookID(ctx, bookID)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if book.UserID != user.ID {
		app.notFoundResponse(w, r, books.ErrNotFound)
		return
	}

	obj, err := app.books.Open(ctx, book.ObjectKey)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	defer obj.Close()

	contentType := map[string]string{
		"pdf":  "application/pdf",
		"epub": "application/epub+zip",
		"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}[book.Format]
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", book.BookID+"."+book.Format))

	if _, err := io.Copy(w, obj); err != nil {
		app.logger.Errorw("error streaming book", "book_id", book.BookID, "error", err)
	}
}
