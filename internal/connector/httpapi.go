package connector

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"github.com/mbeoliero/datafactory/domain/entity"
)

// HttpSource 从 HTTP 接口拉取对象数组作为行数据，query 被忽略
type HttpSource struct {
	client  *resty.Client
	url     string
	method  string
	headers map[string]string
}

func NewHttpSource(cfg entity.ConnectorConfig) (Source, error) {
	url, err := stringKey(cfg, "url")
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if raw, ok := cfg["headers"].(map[string]any); ok {
		for k, v := range raw {
			headers[k] = fmt.Sprint(v)
		}
	}

	return &HttpSource{
		client:  resty.New(),
		url:     url,
		method:  optionalString(cfg, "method", http.MethodGet),
		headers: headers,
	}, nil
}

func (s *HttpSource) Extract(ctx context.Context, query string) ([]Row, error) {
	req := s.client.R().SetContext(ctx)
	if len(s.headers) > 0 {
		req.SetHeaders(s.headers)
	}

	var resp *resty.Response
	var err error
	switch s.method {
	case http.MethodGet:
		resp, err = req.Get(s.url)
	case http.MethodPost:
		resp, err = req.Post(s.url)
	default:
		return nil, fmt.Errorf("unsupported http method: %s", s.method)
	}
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("http status: %s", resp.Status())
	}

	var rows []Row
	if err = sonic.Unmarshal(resp.Bytes(), &rows); err != nil {
		return nil, fmt.Errorf("parse http response: %w", err)
	}
	return rows, nil
}

func (s *HttpSource) ListTables(ctx context.Context) ([]string, error) {
	return []string{s.url}, nil
}

func (s *HttpSource) Close() error {
	return s.client.Close()
}
