package model

import (
	"strconv"
	"strings"
)

// ListPageSize は一覧ページの1ページあたりの件数。
const ListPageSize = 20

// maxPageNumber を超えるページ番号は切り詰める。OFFSETの肥大化を防ぐ。
const maxPageNumber = 10000

// Page は一覧のページ指定。Numberは1始まり。
type Page struct {
	Number int
	Size   int
}

// ParsePage はクエリパラメータ page を解析する。
// 数値でない値や1未満は1ページ目として扱う。
func ParsePage(raw string, size int) Page {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		n = 1
	}
	if n > maxPageNumber {
		n = maxPageNumber
	}
	if size < 1 {
		size = ListPageSize
	}
	return Page{Number: n, Size: size}
}

// Offset は取得開始位置を返す。
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit は次ページの有無を判定するため1件多い取得件数を返す。
func (p Page) Limit() int {
	return p.Size + 1
}

// Paginate はLimit件で取得した結果を1ページ分に切り詰め、次ページ番号を返す。
// 次ページが無い場合は0を返す。
func Paginate[T any](p Page, rows []T) ([]T, int) {
	if len(rows) <= p.Size {
		return rows, 0
	}
	return rows[:p.Size], p.Number + 1
}
