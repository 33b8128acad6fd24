package observability

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go-canteenadmin/internal/consumer/oplog"
	"go-canteenadmin/internal/mq/kafka"

	"github.com/gin-gonic/gin"
)

// Enqueuer *kafka.AsyncSender 满足
type Enqueuer interface {
	Enqueue(m kafka.AsyncMessage) bool
}

const (
	// maxCapturedBody 脱敏前最多读取的字节数；超出则整体不记录
	maxCapturedBody = 64 << 10
	// maxLoggedBody 脱敏后写入日志的上限
	maxLoggedBody = 4096
	// unparsedBody 无法解析为 JSON 时的占位，原文可能含敏感字段
	unparsedBody  = "<unparsed>"
	truncatedBody = "<truncated>"
)

var sensitiveKeys = map[string]struct{}{
	"password": {}, "passwd": {}, "pwd": {}, "token": {}, "authorization": {}, "secret": {},
}

// OperationLog 记录管理端写操作（GET / OPTIONS 不记录），异步投递 Kafka
func OperationLog(q Enqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if q == nil || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		start := time.Now()
		var loggedBody string
		if c.Request.Body != nil {
			b, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxCapturedBody+1))
			if len(b) > maxCapturedBody {
				loggedBody = truncatedBody
			} else {
				loggedBody = sanitizeJSON(b)
			}
			// 读出的部分与剩余部分拼回去，handler 仍能读到完整 body
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(b), c.Request.Body))
		}
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		e := oplog.Entry{
			ActionName: deriveActionName(path, c.Request.Method),
			Path:       path,
			Method:     c.Request.Method,
			Status:     c.Writer.Status(),
			LatencyMs:  time.Since(start).Milliseconds(),
			IP:         c.ClientIP(),
			UserID:     c.GetString("user_id"),
			Time:       time.Now().UTC().Format(time.RFC3339),
			Body:       loggedBody,
			Query:      summarizeQuery(c.Request.URL.RawQuery),
		}
		for _, er := range c.Errors {
			e.Errors = append(e.Errors, er.Error())
		}
		b, err := json.Marshal(e)
		if err != nil {
			return
		}
		var headers map[string]string
		if traceID := c.GetString(TraceIDKey); traceID != "" {
			headers = map[string]string{"trace_id": traceID}
		}
		q.Enqueue(kafka.AsyncMessage{Ctx: c.Request.Context(), Key: []byte(e.UserID), Value: b, Headers: headers})
	}
}

// summarizeQuery 键排序后拼接，值截断到 100 字节
func summarizeQuery(raw string) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return truncateString(raw, 512)
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := vals[k]; len(v) > 0 {
			pairs = append(pairs, k+"="+truncateString(v[0], 100))
		}
	}
	return truncateString(strings.Join(pairs, "&"), 512)
}

// sanitizeJSON 先脱敏再截断；解析失败不回落到原文
func sanitizeJSON(src []byte) string {
	if len(bytes.TrimSpace(src)) == 0 {
		return ""
	}
	var m interface{}
	if json.Unmarshal(src, &m) != nil {
		return unparsedBody
	}
	m = sanitizeValue(m)
	b, err := json.Marshal(m)
	if err != nil {
		return unparsedBody
	}
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + truncatedBody
	}
	return string(b)
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, vv := range val {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
				val[k] = "***"
				continue
			}
			val[k] = sanitizeValue(vv)
		}
	case []interface{}:
		for i, elem := range val {
			val[i] = sanitizeValue(elem)
		}
	}
	return v
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// deriveActionName POST /api/admin/dishes/:id/status -> post_api_admin_dishes_id_status
func deriveActionName(path, method string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		return strings.ToLower(method)
	}
	p = strings.NewReplacer("/", "_", ":", "").Replace(p)
	return strings.ToLower(method + "_" + p)
}
