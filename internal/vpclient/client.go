// Пакет vpclient — HTTP-клиент для взаимодействия с Vidflow Core backend.
// Поддерживает TLS с кастомным CA (VF_CA_CERT_PATH).
//
// Каждый запрос несёт bearer token (Client Credentials через Keycloak)
// и фиксированный заголовок маршрутизации X-Database. Ответы backend —
// конверт {success, message, data, timestamp}, списки дополнительно
// содержат pagination.
package vpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
)

// databaseHeader — заголовок маршрутизации тенанта/БД на стороне backend.
const databaseHeader = "X-Database"

// TokenProvider — функция, возвращающая JWT для авторизации запросов к backend.
// Получает токен от Keycloak через Client Credentials flow.
type TokenProvider func(ctx context.Context) (string, error)

// Pagination — данные пагинации из конверта списочных ответов backend.
type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalElements int  `json:"totalElements"`
	PageSize      int  `json:"pageSize"`
	HasNext       bool `json:"hasNext"`
	HasPrevious   bool `json:"hasPrevious"`
	IsFirst       bool `json:"isFirst"`
	IsLast        bool `json:"isLast"`
}

// envelope — конверт ответа backend.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Timestamp  int64           `json:"timestamp"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// Client — HTTP-клиент Vidflow Core backend.
type Client struct {
	baseURL       string
	database      string
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// New создаёт клиент backend.
// baseURL — базовый URL backend (без trailing slash).
// database — значение заголовка X-Database.
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// tokenProvider — функция для получения JWT.
func New(baseURL, database, caCertPath string, timeout time.Duration, tokenProvider TokenProvider, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат backend добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		baseURL:       baseURL,
		database:      database,
		httpClient:    httpClient,
		tokenProvider: tokenProvider,
		logger:        logger.With(slog.String("component", "vp_client")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// do выполняет запрос к backend и декодирует data конверта в out.
// Возвращает pagination списочного ответа (nil для одиночных ресурсов).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (*Pagination, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}

	if c.tokenProvider != nil {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("получение токена для backend: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(databaseHeader, c.database)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Транспортная ошибка: таймаут, DNS, обрыв соединения
		return nil, &APIError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Err: err}
	}

	// Конверт присутствует и в ответах с ошибкой — берём message, если он есть
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status: resp.StatusCode,
			Kind:   kindForStatus(resp.StatusCode),
		}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("декодирование конверта ответа %s: %w", path, decodeErr)
	}

	// Бизнес-отказ: HTTP 200, success=false. Сообщение backend — дословно.
	if !env.Success {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Kind:    KindRejected,
			Message: env.Message,
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("декодирование data ответа %s: %w", path, err)
		}
	}

	return env.Pagination, nil
}

// CheckReady проверяет доступность backend через health endpoint.
// Реализует handlers.ReadinessChecker.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/ready", http.NoBody)
	if err != nil {
		return "fail", "ошибка создания запроса: " + err.Error()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("backend недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "degraded", fmt.Sprintf("backend вернул статус %d", resp.StatusCode)
	}
	return "ok", "backend доступен"
}

// --- Videos API ---

// VideoListParams — параметры запроса списка заказов.
type VideoListParams struct {
	// Search — поиск по имени заказчика
	Search string
	// Status — фильтр по статусу производства
	Status string
	// Sort — колонка сортировки в формате "column" / "-column"
	Sort string
	// Page — номер страницы (с 1)
	Page int
	// PageSize — размер страницы
	PageSize int
}

// ListVideos возвращает страницу заказов с фильтрацией и сортировкой.
// GET /api/v1/videos
func (c *Client) ListVideos(ctx context.Context, p VideoListParams) ([]*model.Video, *Pagination, error) {
	q := url.Values{}
	if p.Search != "" {
		q.Set("customerName", p.Search)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}

	var videos []*model.Video
	pg, err := c.do(ctx, http.MethodGet, "/api/v1/videos", q, nil, &videos)
	if err != nil {
		return nil, nil, fmt.Errorf("ListVideos: %w", err)
	}
	return videos, pg, nil
}

// GetVideo возвращает заказ по идентификатору.
// GET /api/v1/videos/{id}
func (c *Client) GetVideo(ctx context.Context, id int64) (*model.Video, error) {
	var video model.Video
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/videos/"+strconv.FormatInt(id, 10), nil, nil, &video); err != nil {
		return nil, fmt.Errorf("GetVideo %d: %w", id, err)
	}
	return &video, nil
}

// UpdateVideoStatus меняет статус производства заказа.
// PATCH /api/v1/videos/{id}/status
func (c *Client) UpdateVideoStatus(ctx context.Context, id int64, status string) (*model.Video, error) {
	body := map[string]string{"status": status}
	var video model.Video
	if _, err := c.do(ctx, http.MethodPatch, "/api/v1/videos/"+strconv.FormatInt(id, 10)+"/status", nil, body, &video); err != nil {
		return nil, fmt.Errorf("UpdateVideoStatus %d: %w", id, err)
	}
	return &video, nil
}

// UpdateVideoDelivery меняет статус доставки заказа.
// PATCH /api/v1/videos/{id}/delivery
func (c *Client) UpdateVideoDelivery(ctx context.Context, id int64, deliveryStatus string) (*model.Video, error) {
	body := map[string]string{"deliveryStatus": deliveryStatus}
	var video model.Video
	if _, err := c.do(ctx, http.MethodPatch, "/api/v1/videos/"+strconv.FormatInt(id, 10)+"/delivery", nil, body, &video); err != nil {
		return nil, fmt.Errorf("UpdateVideoDelivery %d: %w", id, err)
	}
	return &video, nil
}

// UpdateVideoPayment меняет статус и дату оплаты заказа.
// PATCH /api/v1/videos/{id}/payment
func (c *Client) UpdateVideoPayment(ctx context.Context, id int64, paymentStatus string, paymentDate *time.Time) (*model.Video, error) {
	body := map[string]any{"paymentStatus": paymentStatus}
	if paymentDate != nil {
		body["paymentDate"] = paymentDate.Format("2006-01-02")
	}
	var video model.Video
	if _, err := c.do(ctx, http.MethodPatch, "/api/v1/videos/"+strconv.FormatInt(id, 10)+"/payment", nil, body, &video); err != nil {
		return nil, fmt.Errorf("UpdateVideoPayment %d: %w", id, err)
	}
	return &video, nil
}

// --- Salaries API ---

// salaryQuery формирует query-параметры периода.
// Оба пути фильтра (диапазон и один день) дают одинаковый формат запроса:
// одиночная дата передаётся как from == to.
func salaryQuery(f model.SalaryFilter, page, pageSize int) url.Values {
	q := url.Values{}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format("2006-01-02"))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	return q
}

// ListStaffSalaries возвращает зарплаты сотрудников за период.
// GET /api/v1/staff-salaries
func (c *Client) ListStaffSalaries(ctx context.Context, f model.SalaryFilter, page, pageSize int) ([]*model.StaffSalary, *Pagination, error) {
	var salaries []*model.StaffSalary
	pg, err := c.do(ctx, http.MethodGet, "/api/v1/staff-salaries", salaryQuery(f, page, pageSize), nil, &salaries)
	if err != nil {
		return nil, nil, fmt.Errorf("ListStaffSalaries: %w", err)
	}
	return salaries, pg, nil
}

// ListSalesSalaries возвращает комиссионные зарплаты менеджеров за период.
// GET /api/v1/sales-salaries
func (c *Client) ListSalesSalaries(ctx context.Context, f model.SalaryFilter, page, pageSize int) ([]*model.SalesSalary, *Pagination, error) {
	var salaries []*model.SalesSalary
	pg, err := c.do(ctx, http.MethodGet, "/api/v1/sales-salaries", salaryQuery(f, page, pageSize), nil, &salaries)
	if err != nil {
		return nil, nil, fmt.Errorf("ListSalesSalaries: %w", err)
	}
	return salaries, pg, nil
}

// --- Staff limits API ---

// ListStaffLimits возвращает лимиты всех сотрудников.
// GET /api/v1/staff-limits
func (c *Client) ListStaffLimits(ctx context.Context) ([]*model.StaffLimit, error) {
	var limits []*model.StaffLimit
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/staff-limits", nil, nil, &limits); err != nil {
		return nil, fmt.Errorf("ListStaffLimits: %w", err)
	}
	return limits, nil
}

// GetStaffLimit возвращает лимит одного сотрудника.
// GET /api/v1/staff-limits/{username}
func (c *Client) GetStaffLimit(ctx context.Context, username string) (*model.StaffLimit, error) {
	var limit model.StaffLimit
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/staff-limits/"+url.PathEscape(username), nil, nil, &limit); err != nil {
		return nil, fmt.Errorf("GetStaffLimit %s: %w", username, err)
	}
	return &limit, nil
}

// SetStaffLimit устанавливает лимит заказов сотрудника.
// PUT /api/v1/staff-limits/{username}
func (c *Client) SetStaffLimit(ctx context.Context, username string, maxOrders int) (*model.StaffLimit, error) {
	body := map[string]int{"maxOrders": maxOrders}
	var limit model.StaffLimit
	if _, err := c.do(ctx, http.MethodPut, "/api/v1/staff-limits/"+url.PathEscape(username), nil, body, &limit); err != nil {
		return nil, fmt.Errorf("SetStaffLimit %s: %w", username, err)
	}
	return &limit, nil
}

// DeleteStaffLimit снимает лимит заказов сотрудника.
// DELETE /api/v1/staff-limits/{username}
func (c *Client) DeleteStaffLimit(ctx context.Context, username string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/api/v1/staff-limits/"+url.PathEscape(username), nil, nil, nil); err != nil {
		return fmt.Errorf("DeleteStaffLimit %s: %w", username, err)
	}
	return nil
}
