package order

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimall/minimall/internal/httpx"
)

func init() { gin.SetMode(gin.TestMode) }

// router wires the order routes with an auth shim that injects the
// given user id, so the handlers are tested without real tokens.
func router(svc *Service, userID string) *gin.Engine {
	r := gin.New()
	asUser := func(c *gin.Context) {
		c.Set(httpx.CtxUserID, userID)
		c.Next()
	}
	g := r.Group("/api/orders", asUser)
	g.POST("", CreateHandler(svc))
	g.GET("/:id", GetHandler(svc))
	g.POST("/:id/pay", PayHandler(svc))
	g.POST("/:id/cancel", CancelHandler(svc))
	return r
}

func doJSON(r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateHandlerCreated(t *testing.T) {
	_, svc := fixture()
	r := router(svc, buyer)

	w := doJSON(r, http.MethodPost, "/api/orders", CreateRequest{
		AddressID:   addrID,
		CartItemIDs: []string{"ci1"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Code int   `json:"code"`
		Data Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, StatusPendingPayment, resp.Data.Status)
	assert.Equal(t, "200.00", resp.Data.ActualAmount)
}

func TestCreateHandlerValidation(t *testing.T) {
	_, svc := fixture()
	r := router(svc, buyer)

	w := doJSON(r, http.MethodPost, "/api/orders", gin.H{"cartItemIds": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "参数验证失败")
}

func TestPayHandlerWrongState(t *testing.T) {
	_, svc := fixture()
	o := mustCreate(t, svc, "ci1")
	r := router(svc, buyer)

	w := doJSON(r, http.MethodPost, "/api/orders/"+o.ID+"/pay", PayRequest{PaymentMethod: "WECHAT"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/orders/"+o.ID+"/pay", PayRequest{PaymentMethod: "WECHAT"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "订单状态不正确")
}

func TestGetHandlerIsolation(t *testing.T) {
	_, svc := fixture()
	o := mustCreate(t, svc, "ci1")

	w := doJSON(router(svc, "intruder"), http.MethodGet, "/api/orders/"+o.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "订单不存在")
}

func TestGetHandlerRepoFailureIsNot404(t *testing.T) {
	repo, svc := fixture()
	o := mustCreate(t, svc, "ci1")
	repo.getErr = errors.New("timeout: context deadline exceeded")

	w := doJSON(router(svc, buyer), http.MethodGet, "/api/orders/"+o.ID, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "context deadline exceeded")
	assert.NotContains(t, w.Body.String(), "订单不存在")
}

func TestCancelHandlerAfterPay(t *testing.T) {
	_, svc := fixture()
	o := mustCreate(t, svc, "ci1")
	r := router(svc, buyer)

	w := doJSON(r, http.MethodPost, "/api/orders/"+o.ID+"/pay", PayRequest{PaymentMethod: "ALIPAY"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/orders/"+o.ID+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "只能取消待付款订单")
}
