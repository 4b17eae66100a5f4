package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var blockValidator = newBlockValidator()

func newBlockValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BlockIssue одна проблема в конкретном блоке.
type BlockIssue struct {
	Path    string    `json:"path"`
	Type    BlockType `json:"type"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

// ContentValidationError список проблем, блокирующих сохранение контента.
type ContentValidationError struct {
	Issues []BlockIssue `json:"issues"`
}

func (e *ContentValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Field != "" {
			msgs = append(msgs, fmt.Sprintf("block %s (%s) %s: %s", is.Path, is.Type, is.Field, is.Message))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("block %s (%s): %s", is.Path, is.Type, is.Message))
	}
	return fmt.Sprintf("content validation failed: %s", strings.Join(msgs, "; "))
}

// IsContentValidationError проверяет, является ли ошибка ошибкой валидации контента.
func IsContentValidationError(err error) bool {
	var target *ContentValidationError
	return errors.As(err, &target)
}

// ValidateBlocks проверяет обязательные поля и ограничения размеров списков,
// рекурсивно заходя в секретные блоки. Неизвестные блоки не проверяются.
func ValidateBlocks(blocks BlockList) error {
	var issues []BlockIssue
	collectIssues(blocks, "", &issues)

	if len(issues) > 0 {
		return &ContentValidationError{Issues: issues}
	}
	return nil
}

func collectIssues(blocks BlockList, prefix string, issues *[]BlockIssue) {
	for i, b := range blocks {
		path := fmt.Sprintf("%s%d", prefix, i)

		switch v := b.(type) {
		case nil:
			*issues = append(*issues, BlockIssue{Path: path, Message: "block is empty"})
			continue
		case *UnknownBlock, UnknownBlock:
			continue
		case *SecretBlock:
			collectIssues(v.Content, path+".content.", issues)
			continue
		}

		err := blockValidator.Struct(b)
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			*issues = append(*issues, BlockIssue{Path: path, Type: b.Kind(), Message: err.Error()})
			continue
		}

		for _, fe := range verrs {
			*issues = append(*issues, BlockIssue{
				Path:    path,
				Type:    b.Kind(),
				Field:   fieldPath(fe.Namespace()),
				Message: issueMessage(fe),
			})
		}
	}
}

// fieldPath убирает имя корневой структуры и встроенных структур:
// "GalleryBlock.images[1].url" -> "images[1].url".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	kept := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 || p == "" {
			continue
		}
		if unicode.IsUpper(rune(p[0])) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must have exactly %s items", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s items", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s items", fe.Param())
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}
