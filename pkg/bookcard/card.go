// Package bookcard converts between the vision model's free-text reply and a
// structured book record. The model is instructed to answer with one
// "Label: value" line per field; Parse is the tolerant inverse of Render.
package bookcard

import (
	"strconv"
	"strings"

	"bookbot/pkg/domain"
)

// separator splits a line into label and value at its first occurrence.
const separator = ": "

// Labels holds the label set the model is prompted with and the parser
// matches against. Kept in one table so prompt and parser cannot drift.
type Labels struct {
	Author    string
	Title     string
	Year      string
	Category  string
	Publisher string
}

// DefaultLabels matches the wording used in the extraction prompt.
var DefaultLabels = Labels{
	Author:    "Автор",
	Title:     "Название",
	Year:      "Год издания",
	Category:  "Категория",
	Publisher: "Издательство",
}

// Prompt is the instruction sent to the vision model together with the
// title-page photo.
const Prompt = "На фотографии — титульная страница книги. Определи по ней данные книги " +
	"и ответь строго в формате, по одной строке на поле:\n" +
	"Автор: <автор>\n" +
	"Название: <название>\n" +
	"Год издания: <год числом>\n" +
	"Категория: <категория>\n" +
	"Издательство: <издательство>\n" +
	"Если какое-то поле не видно, оставь его значение пустым. Не добавляй других строк."

// Parse extracts book fields from the model's reply. It is a best-effort
// parse: lines without the separator or with unknown labels are ignored, a
// non-numeric year yields 0, and malformed input produces a partial record
// rather than an error.
func Parse(text string) domain.Book {
	return ParseWith(DefaultLabels, text)
}

// ParseWith parses using a caller-supplied label table.
func ParseWith(labels Labels, text string) domain.Book {
	var book domain.Book
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		label, value, ok := strings.Cut(line, separator)
		if !ok {
			continue
		}
		switch label {
		case labels.Author:
			book.Author = value
		case labels.Title:
			book.Title = value
		case labels.Year:
			book.PublicationYear = parseYear(value)
		case labels.Category:
			book.Category = value
		case labels.Publisher:
			book.Publisher = value
		}
	}
	return book
}

// parseYear converts a value consisting entirely of decimal digits; anything
// else ("1937 г.", "неизвестно", "") means the year is unknown.
func parseYear(value string) int {
	if value == "" {
		return 0
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0
		}
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return year
}

// Render formats a record as one "Label: value" line per field, the same
// shape Parse consumes and the shape query replies use.
func Render(book domain.Book) string {
	return RenderWith(DefaultLabels, book)
}

// RenderWith renders using a caller-supplied label table.
func RenderWith(labels Labels, book domain.Book) string {
	lines := []string{
		labels.Author + separator + book.Author,
		labels.Title + separator + book.Title,
		labels.Year + separator + strconv.Itoa(book.PublicationYear),
		labels.Category + separator + book.Category,
		labels.Publisher + separator + book.Publisher,
	}
	return strings.Join(lines, "\n")
}
