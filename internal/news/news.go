// Package news holds the item model shared by the pipeline, the cache source
// and the HTTP surface. Field names on the wire follow the upstream payload so
// the cached blob stays server-compatible.
package news

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Media 描述单条新闻附带的一个媒体资源。
type Media struct {
	URL       string `json:"url"`
	Format    string `json:"format"`
	Height    int    `json:"height"`
	Width     int    `json:"width"`
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	Caption   string `json:"caption"`
	Copyright string `json:"copyright"`
}

// Item 是一条新闻。Media 按上游顺序保存，可能为空。
type Item struct {
	Section       string  `json:"section"`
	Subsection    string  `json:"subsection"`
	Title         string  `json:"title"`
	Summary       string  `json:"abstract"`
	URL           string  `json:"url"`
	Byline        string  `json:"byline"`
	PublishedDate string  `json:"published_date"`
	Media         []Media `json:"multimedia"`
}

// Equal 按字段逐一比较，Media 需顺序一致；nil 与空列表视为相同。
func (i Item) Equal(other Item) bool {
	if i.Section != other.Section ||
		i.Subsection != other.Subsection ||
		i.Title != other.Title ||
		i.Summary != other.Summary ||
		i.URL != other.URL ||
		i.Byline != other.Byline ||
		i.PublishedDate != other.PublishedDate {
		return false
	}
	if len(i.Media) != len(other.Media) {
		return false
	}
	for idx := range i.Media {
		if i.Media[idx] != other.Media[idx] {
			return false
		}
	}
	return true
}

// EqualLists reports whether both lists hold structurally equal items in the same order.
func EqualLists(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if !a[idx].Equal(b[idx]) {
			return false
		}
	}
	return true
}

// DecodeList 将 JSON 数组解析为 Item 列表。空数组返回非 nil 的空切片。
// 每个元素必须是带 multimedia 键的对象，否则整批失败。
func DecodeList(data []byte) ([]Item, error) {
	if err := checkElements(data); err != nil {
		return nil, fmt.Errorf("decode news list: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode news list: %w", err)
	}
	if items == nil {
		// "null" 不是合法的列表载荷
		return nil, fmt.Errorf("decode news list: not an array")
	}
	for idx := range items {
		if items[idx].Media == nil {
			items[idx].Media = []Media{}
		}
	}
	return items, nil
}

func checkElements(data []byte) error {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		// 交给 json.Unmarshal 给出具体错误
		return nil
	}
	var err error
	idx := 0
	parsed.ForEach(func(_, value gjson.Result) bool {
		switch {
		case !value.IsObject():
			err = fmt.Errorf("element %d is not an object", idx)
		case !value.Get("multimedia").Exists():
			err = fmt.Errorf("element %d has no multimedia", idx)
		}
		idx++
		return err == nil
	})
	return err
}
