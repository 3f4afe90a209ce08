package pipeline

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/any-hub/news-hub/internal/news"
)

const statusOK = "OK"

// ResponseStage 校验上游 JSON、修复 multimedia 字段并转换为 news.Item，
// 成功后把修复后的 results 数组写入缓存。
type ResponseStage struct {
	writer BlobWriter
	logger *logrus.Logger
}

// NewResponseStage 构造响应阶段；writer 为空时跳过缓存写入。
func NewResponseStage(writer BlobWriter, logger *logrus.Logger) *ResponseStage {
	return &ResponseStage{writer: writer, logger: orDiscard(logger)}
}

// Execute 解析 body。status 缺失或不为 "OK" 返回 ErrServerRejected，
// 其它解析/转换失败返回 ErrMalformedPayload，两种情况都不会写缓存。
func (s *ResponseStage) Execute(body string) ([]news.Item, error) {
	fields := logrus.Fields{"action": "upstream_response", "bytes": len(body)}

	if !gjson.Valid(body) {
		s.logger.WithFields(fields).Warn("payload_invalid_json")
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedPayload)
	}
	root := gjson.Parse(body)
	if !root.IsObject() {
		s.logger.WithFields(fields).Warn("payload_not_object")
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedPayload)
	}

	status := root.Get("status")
	if status.Type != gjson.String || status.String() != statusOK {
		fields["status"] = status.Raw
		s.logger.WithFields(fields).Warn("payload_status_rejected")
		return nil, fmt.Errorf("%w: status=%s", ErrServerRejected, status.Raw)
	}

	results := root.Get("results")
	if !results.IsArray() {
		s.logger.WithFields(fields).Warn("payload_results_missing")
		return nil, fmt.Errorf("%w: results is not an array", ErrMalformedPayload)
	}

	repaired, fixed, err := Repair(results.Raw)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("payload_repair_failed")
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	items, err := news.DecodeList([]byte(repaired))
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("payload_convert_failed")
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if s.writer != nil {
		s.writer.Write(repaired)
	}

	fields["items"] = len(items)
	fields["repaired"] = fixed
	s.logger.WithFields(fields).Debug("payload converted")
	return items, nil
}

// Repair 把 results 数组中类型为字符串的 multimedia 替换为 []。
// 上游在没有媒体时会输出 "" 而不是空数组。其余字节保持原样；
// 其它类型不一致不在此处理，交由后续转换失败；非对象元素（包括 null）直接拒绝。
// 返回修复后的文本与修复条数。
func Repair(results string) (string, int, error) {
	parsed := gjson.Parse(results)
	if !parsed.IsArray() {
		return "", 0, fmt.Errorf("results is not an array")
	}

	var indexes []int
	idx := 0
	bad := -1
	parsed.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			bad = idx
			return false
		}
		if value.Get("multimedia").Type == gjson.String {
			indexes = append(indexes, idx)
		}
		idx++
		return true
	})
	if bad >= 0 {
		return "", 0, fmt.Errorf("results[%d] is not an object", bad)
	}

	repaired := results
	for _, i := range indexes {
		var err error
		repaired, err = sjson.SetRaw(repaired, strconv.Itoa(i)+".multimedia", "[]")
		if err != nil {
			return "", 0, fmt.Errorf("repair multimedia at %d: %w", i, err)
		}
	}
	return repaired, len(indexes), nil
}
