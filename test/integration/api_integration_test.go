package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"product-catalog/internal/model"
	"product-catalog/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiClient issues JSON requests against a test server.
type apiClient struct {
	t       *testing.T
	baseURL string
}

func (c *apiClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	return resp.StatusCode, data
}

func (c *apiClient) create(name, description string, stock int) model.Product {
	c.t.Helper()

	status, data := c.do(http.MethodPost, "/products", map[string]any{
		"name": name, "description": description, "stock": stock,
	})
	require.Equal(c.t, http.StatusCreated, status, string(data))

	var p model.Product
	require.NoError(c.t, json.Unmarshal(data, &p))
	return p
}

func (c *apiClient) update(id int64, patch map[string]any) (int, model.Product) {
	c.t.Helper()

	status, data := c.do(http.MethodPut, fmt.Sprintf("/products/%d", id), patch)
	var p model.Product
	if status == http.StatusOK {
		require.NoError(c.t, json.Unmarshal(data, &p))
	}
	return status, p
}

func (c *apiClient) list(path string) []model.Product {
	c.t.Helper()

	status, data := c.do(http.MethodGet, path, nil)
	require.Equal(c.t, http.StatusOK, status, string(data))

	var products []model.Product
	require.NoError(c.t, json.Unmarshal(data, &products))
	return products
}

func (c *apiClient) errorCode(status int, data []byte) string {
	c.t.Helper()

	var resp model.ErrorResponse
	require.NoError(c.t, json.Unmarshal(data, &resp), "status %d body %s", status, data)
	assert.NotEmpty(c.t, resp.CorrelationID)
	return resp.Error
}

func productNames(products []model.Product) []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

func searchQuery(criteria model.SearchCriteria) string {
	raw, _ := json.Marshal(criteria)
	return "/products?search=" + url.QueryEscape(string(raw))
}

func TestProductAPI_Memory(t *testing.T) {
	runProductAPIScenarios(t, func(t *testing.T) *apiClient {
		repo := repository.NewMemoryProductRepository(zerolog.Nop())
		return &apiClient{t: t, baseURL: NewTestServer(t, repo).URL}
	})
}

func TestProductAPI_Postgres(t *testing.T) {
	testDB := SetupTestDB(t)
	repo := repository.NewProductRepository(testDB.Pool, zerolog.Nop())

	runProductAPIScenarios(t, func(t *testing.T) *apiClient {
		testDB.Reset(t)
		return &apiClient{t: t, baseURL: NewTestServer(t, repo).URL}
	})
}

// runProductAPIScenarios runs each scenario against a fresh, empty catalog.
func runProductAPIScenarios(t *testing.T, newClient func(t *testing.T) *apiClient) {
	t.Run("Distinct names get unique ids", func(t *testing.T) {
		c := newClient(t)

		seen := make(map[int64]bool)
		for i := 0; i < 5; i++ {
			p := c.create(fmt.Sprintf("Product %d", i), "desc", i)
			assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
			seen[p.ID] = true
			assert.Equal(t, 0, p.ItemsSold)
			assert.False(t, p.CreatedAt.IsZero())
		}
	})

	t.Run("Case-insensitive name conflict on create", func(t *testing.T) {
		c := newClient(t)
		c.create("Alpha", "First", 10)

		status, data := c.do(http.MethodPost, "/products", map[string]any{
			"name": "ALPHA", "description": "Other", "stock": 1,
		})

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, model.ErrCodeProductNameConflict, c.errorCode(status, data))
		assert.Len(t, c.list("/products"), 1)
	})

	t.Run("Update", func(t *testing.T) {
		c := newClient(t)
		alpha := c.create("Alpha", "First", 10)
		beta := c.create("Beta", "Second", 20)

		status, updated := c.update(alpha.ID, map[string]any{"stock": 3})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 3, updated.Stock)
		assert.Equal(t, "Alpha", updated.Name)
		assert.Equal(t, "First", updated.Description)

		status, _ = c.update(beta.ID, map[string]any{"name": "alpha"})
		assert.Equal(t, http.StatusBadRequest, status)

		status, updated = c.update(alpha.ID, map[string]any{"name": "ALPHA"})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ALPHA", updated.Name)

		status, _ = c.update(9999, map[string]any{"stock": 1})
		assert.Equal(t, http.StatusNotFound, status)

		assert.Equal(t, []string{"ALPHA", "Beta"}, productNames(c.list("/products")))
	})

	t.Run("Delete respects pending orders", func(t *testing.T) {
		c := newClient(t)
		p := c.create("Alpha", "First", 10)

		status, _ := c.update(p.ID, map[string]any{"hasPendingOrders": true})
		require.Equal(t, http.StatusOK, status)

		status, data := c.do(http.MethodDelete, fmt.Sprintf("/products/%d", p.ID), nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, model.ErrCodePendingOrders, c.errorCode(status, data))
		assert.Len(t, c.list("/products"), 1)

		status, _ = c.update(p.ID, map[string]any{"hasPendingOrders": false})
		require.Equal(t, http.StatusOK, status)

		status, _ = c.do(http.MethodDelete, fmt.Sprintf("/products/%d", p.ID), nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = c.do(http.MethodDelete, fmt.Sprintf("/products/%d", p.ID), nil)
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = c.update(p.ID, map[string]any{"stock": 1})
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("Ids are not reused after delete", func(t *testing.T) {
		c := newClient(t)
		c.create("One", "d", 1)
		two := c.create("Two", "d", 1)
		three := c.create("Three", "d", 1)

		status, _ := c.do(http.MethodDelete, fmt.Sprintf("/products/%d", two.ID), nil)
		require.Equal(t, http.StatusNoContent, status)

		four := c.create("Four", "d", 1)
		assert.Greater(t, four.ID, three.ID)
	})

	t.Run("FindAll default order, sort and pagination", func(t *testing.T) {
		c := newClient(t)
		c.create("Alpha", "First", 10)
		c.create("Beta", "Second", 30)
		c.create("Gamma", "Third", 20)

		assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, productNames(c.list("/products")))
		assert.Equal(t, []string{"Beta", "Gamma", "Alpha"}, productNames(c.list("/products?sortBy=stock&sortOrder=desc")))
		assert.Equal(t, []string{"Alpha", "Gamma", "Beta"}, productNames(c.list("/products?sortBy=stock&sortOrder=asc")))
		assert.Equal(t, []string{"Gamma", "Beta"}, productNames(c.list("/products?sortBy=name&page=1&limit=2")))
		assert.Equal(t, []string{"Gamma"}, productNames(c.list("/products?page=2&limit=2")))
		assert.Empty(t, c.list("/products?page=5&limit=2"))
	})

	t.Run("FindAll search", func(t *testing.T) {
		c := newClient(t)
		c.create("Alpha", "First", 10)
		c.create("Beta", "Second", 20)

		assert.Equal(t, []string{"Alpha"}, productNames(c.list(searchQuery(model.SearchCriteria{Name: "alpha"}))))
		assert.Equal(t, []string{"Beta"}, productNames(c.list(searchQuery(model.SearchCriteria{Description: "second"}))))
		assert.Empty(t, c.list(searchQuery(model.SearchCriteria{Name: "alpha", Description: "second"})))
		assert.Empty(t, c.list(searchQuery(model.SearchCriteria{Name: "%"})))
	})

	t.Run("Low stock excludes threshold", func(t *testing.T) {
		c := newClient(t)
		c.create("Alpha", "First", 4)
		c.create("Beta", "Second", 5)
		c.create("Gamma", "Third", 0)

		assert.Equal(t, []string{"Alpha", "Gamma"}, productNames(c.list("/products/lowStock?threshold=5")))
		assert.Empty(t, c.list("/products/lowStock?threshold=0"))
	})

	t.Run("Most popular", func(t *testing.T) {
		c := newClient(t)
		for name, sold := range map[string]int{"Low": 25, "High": 100, "Mid": 50} {
			p := c.create(name, "d", 1)
			status, _ := c.update(p.ID, map[string]any{"itemsSold": sold})
			require.Equal(t, http.StatusOK, status)
		}

		assert.Equal(t, []string{"High", "Mid"}, productNames(c.list("/products/popular?limit=2")))
		assert.Len(t, c.list("/products/popular"), 3)
		assert.Empty(t, c.list("/products/popular?limit=0"))
	})

	t.Run("Concurrent creates with one name", func(t *testing.T) {
		c := newClient(t)

		const workers = 20
		statuses := make(chan int, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				names := []string{"Race", "RACE", "race"}
				payload, _ := json.Marshal(map[string]any{
					"name": names[i%len(names)], "description": "d", "stock": 1,
				})
				resp, err := http.Post(c.baseURL+"/products", "application/json", bytes.NewReader(payload))
				if err != nil {
					statuses <- 0
					return
				}
				resp.Body.Close()
				statuses <- resp.StatusCode
			}(i)
		}
		wg.Wait()
		close(statuses)

		created := 0
		for status := range statuses {
			switch status {
			case http.StatusCreated:
				created++
			default:
				assert.Equal(t, http.StatusBadRequest, status)
			}
		}
		assert.Equal(t, 1, created)
		assert.Len(t, c.list("/products"), 1)
	})

	t.Run("Probes and metrics", func(t *testing.T) {
		c := newClient(t)

		status, _ := c.do(http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, status)

		status, _ = c.do(http.MethodGet, "/ready", nil)
		assert.Equal(t, http.StatusOK, status)

		c.list("/products")
		status, data := c.do(http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(data), "product_catalog_http_requests_total")
	})
}
