package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPageType_Valid(t *testing.T) {
	tests := []struct {
		pageType PageType
		want     bool
	}{
		{PageTypeHome, true},
		{PageTypeInfo, true},
		{PageTypeItem, true},
		{PageTypeForum, true},
		{PageTypeForumTopic, true},
		{PageTypeImage, true},
		{0, false},
		{2, false},
		{-1, false},
	}

	for _, tt := range tests {
		if got := tt.pageType.Valid(); got != tt.want {
			t.Errorf("PageType(%d).Valid() = %v, want %v", tt.pageType, got, tt.want)
		}
	}
}

func TestAPIError_Format(t *testing.T) {
	err := NewStatNotFoundError(PageTypeItem, "item-1")

	if err.Code != ErrCodeStatNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeStatNotFound)
	}
	if !strings.HasPrefix(err.Error(), "[STAT_NOT_FOUND] ") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !strings.Contains(err.Message, `"item-1"`) {
		t.Errorf("Message = %q, want the object id", err.Message)
	}

	var apiErr *APIError
	if !errors.As(fmt.Errorf("wrapped: %w", NewInvalidPageTypeError("abc")), &apiErr) {
		t.Fatal("APIError should survive wrapping")
	}
	if apiErr.Code != ErrCodeInvalidPageType {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeInvalidPageType)
	}
}

func TestValidationError(t *testing.T) {
	err := error(NewValidationError("title", "required"))

	var ve *ValidationError
	if !errors.As(fmt.Errorf("create: %w", err), &ve) {
		t.Fatal("expected ValidationError")
	}
	if ve.Field != "title" || ve.Reason != "required" {
		t.Errorf("got %+v", ve)
	}
	if err.Error() != "title: required" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"未指定", "", 1},
		{"2ページ目", "2", 2},
		{"前後の空白", " 3 ", 3},
		{"0", "0", 1},
		{"負数", "-4", 1},
		{"数値以外", "abc", 1},
		{"上限超過", "99999999", maxPageNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePage(tt.raw, ListPageSize)
			if p.Number != tt.want {
				t.Errorf("Number = %d, want %d", p.Number, tt.want)
			}
			if p.Size != ListPageSize {
				t.Errorf("Size = %d, want %d", p.Size, ListPageSize)
			}
		})
	}
}

func TestPage_OffsetAndLimit(t *testing.T) {
	p := Page{Number: 3, Size: 20}
	if got := p.Offset(); got != 40 {
		t.Errorf("Offset() = %d, want 40", got)
	}
	if got := p.Limit(); got != 21 {
		t.Errorf("Limit() = %d, want 21", got)
	}
}

func TestPaginate(t *testing.T) {
	p := Page{Number: 2, Size: 3}

	rows, next := Paginate(p, []int{1, 2, 3, 4})
	if len(rows) != 3 || next != 3 {
		t.Errorf("full page: len=%d next=%d, want 3/3", len(rows), next)
	}

	rows, next = Paginate(p, []int{1, 2, 3})
	if len(rows) != 3 || next != 0 {
		t.Errorf("last page: len=%d next=%d, want 3/0", len(rows), next)
	}

	rows, next = Paginate(p, []int(nil))
	if len(rows) != 0 || next != 0 {
		t.Errorf("empty: len=%d next=%d, want 0/0", len(rows), next)
	}
}
