package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second
	// the prediction service can take a while on large fundus images
	UploadTimeout = 60 * time.Second
)

type Client struct {
	conn Connection
}

// GatewayError is a non-2xx answer from the records gateway. The gateway's
// own message is kept when the body carries one.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}

type gatewayErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// this is defined in the client because other wise we would have a circular import:
// BaseModel needs to import client and client needs to import BaseModel
type BaseModel struct {
	URL    string  `json:"-"`
	Client *Client `json:"-"`
}

func NewClient(url string, token string, verifyCert bool) *Client {
	connection := &TokenConnection{verifyCert: verifyCert, token: token, url: url}
	return &Client{conn: connection}
}

func NewAnonymousClient(url string, verifyCert bool) *Client {
	connection := &AnonymousConnection{verifyCert: verifyCert, url: url}
	return &Client{conn: connection}
}

func (client *Client) GetAndParse(ctx context.Context, path string, target interface{}) error {
	resp, err := client.Get(ctx, path, -1)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return client.parseResponse(resp, target, path)
}

func (client *Client) PostAndParse(ctx context.Context, path string, body io.Reader, target interface{}) error {
	resp, err := client.Post(ctx, path, body, -1)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return client.parseResponse(resp, target, path)
}

func (client *Client) PutAndParse(ctx context.Context, path string, body io.Reader, target interface{}) error {
	resp, err := client.Put(ctx, path, body, -1)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return client.parseResponse(resp, target, path)
}

// Delete issues a DELETE and only checks the status; the gateway returns no
// body worth parsing on deletion.
func (client *Client) Delete(ctx context.Context, path string) error {
	resp, err := client.do(ctx, "DELETE", path, nil, "application/json", -1)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return newGatewayError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// PostMultipart submits a single file as a multipart form, the shape the
// image prediction endpoint expects, and parses the JSON answer into target.
func (client *Client) PostMultipart(ctx context.Context, path string, field string, filename string, file io.Reader, target interface{}) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	if _, err = io.Copy(fw, file); err != nil {
		return err
	}
	// the writer must be closed so the form carries its terminating boundary
	if err = w.Close(); err != nil {
		return err
	}

	resp, err := client.do(ctx, "POST", path, &b, w.FormDataContentType(), UploadTimeout)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return client.parseResponse(resp, target, path)
}

func (client *Client) parseResponse(resp *http.Response, target interface{}, path string) error {
	if resp.StatusCode >= 400 {
		return newGatewayError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	err = json.Unmarshal(body, target)
	if err != nil {
		return &GatewayError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("undecodable response from %s", path)}
	}

	targetType := reflect.TypeOf(target)
	targetValue := reflect.ValueOf(target)

	if targetType.Kind() == reflect.Ptr {
		targetType = targetType.Elem()
		targetValue = targetValue.Elem()
	}

	if targetType.Kind() == reflect.Slice {
		for i := 0; i < targetValue.Len(); i++ {
			elem := targetValue.Index(i)
			if baseModel, ok := getBaseModelFromStruct(elem); ok {
				baseModel.URL = path
				baseModel.Client = client
			}
		}
	} else if targetType.Kind() == reflect.Struct {
		if baseModel, ok := getBaseModelFromStruct(targetValue); ok {
			baseModel.URL = path
			baseModel.Client = client
		}
	}

	return nil
}

func newGatewayError(resp *http.Response) *GatewayError {
	gwErr := &GatewayError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gwErr
	}
	var parsed gatewayErrorBody
	if err = json.Unmarshal(body, &parsed); err != nil {
		return gwErr
	}
	if parsed.Message != "" {
		gwErr.Message = parsed.Message
	} else if parsed.Error != "" {
		gwErr.Message = parsed.Error
	}
	return gwErr
}

func getBaseModelFromStruct(value reflect.Value) (*BaseModel, bool) {
	n := value.NumField()
	for i := 0; i < n; i++ {
		field := value.Field(i)
		if field.Type().Name() == "BaseModel" {
			return field.Addr().Interface().(*BaseModel), true
		}
	}
	return nil, false
}

func (client Client) GetUrl(path string) string {
	u, err := url.Parse(client.conn.getUrl())
	if err != nil {
		return client.conn.getUrl() + path
	}
	parsedPath, err := url.Parse(path)
	if err != nil {
		return client.conn.getUrl() + path
	}

	resolvedURL := u.ResolveReference(parsedPath).String()
	return resolvedURL
}

func handleNoCertificateCheck(check bool) {
	if !check {
		http.DefaultTransport.(*http.Transport).TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
}

func (client *Client) Get(ctx context.Context, path string, timeout time.Duration) (*http.Response, error) {
	return client.do(ctx, "GET", path, nil, "application/json", timeout)
}

func (client *Client) Post(ctx context.Context, path string, body io.Reader, timeout time.Duration) (*http.Response, error) {
	return client.do(ctx, "POST", path, body, "application/json", timeout)
}

func (client *Client) Put(ctx context.Context, path string, body io.Reader, timeout time.Duration) (*http.Response, error) {
	return client.do(ctx, "PUT", path, body, "application/json", timeout)
}

func (client *Client) do(ctx context.Context, method string, path string, body io.Reader, contentType string, timeout time.Duration) (*http.Response, error) {
	if client.conn != nil {
		handleNoCertificateCheck(client.conn.verifyCertificate())
	}
	url := client.GetUrl(path)
	if timeout == -1 {
		timeout = DefaultTimeout
	}
	httpClient := &http.Client{
		Timeout: timeout,
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	if client.conn != nil {
		auth := client.conn.auth()
		if auth != nil {
			req.Header.Set(auth.Key, auth.Value)
		}
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, err
}
