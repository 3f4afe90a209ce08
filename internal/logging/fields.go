package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// FetchFields 提供单次拉取的会话、数据源与偏好字段。
func FetchFields(sessionID, source string, preferCache bool) logrus.Fields {
	return logrus.Fields{
		"action":       "fetch",
		"session_id":   sessionID,
		"source":       source,
		"prefer_cache": preferCache,
	}
}

// RequestFields 用于 HTTP 访问日志。
func RequestFields(requestID, method, path string, status int) logrus.Fields {
	return logrus.Fields{
		"action":     "http_request",
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     status,
	}
}
