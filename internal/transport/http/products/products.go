package products

import (
	"context"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
	"github.com/msalarini/store-lamayer/internal/transport/http/respond"
)

type service interface {
	ListProducts(ctx context.Context, filter product.QueryProductsModel) ([]product.Product, error)
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

type queryProductsRequest struct {
	Ids        []int64 `schema:"ids,omitempty"`
	Search     string  `schema:"search,omitempty"`
	CategoryID int64   `schema:"categoryId,omitempty"`
	Limit      int     `schema:"limit,omitempty"`
	Offset     int     `schema:"offset,omitempty"`
}

const maxProducts = 200

func (q *queryProductsRequest) ToModel() product.QueryProductsModel {
	limit := q.Limit
	if limit <= 0 || limit > maxProducts {
		limit = maxProducts
	}

	return product.QueryProductsModel{
		Ids:        q.Ids,
		Search:     q.Search,
		CategoryID: q.CategoryID,
		Limit:      limit,
		Offset:     q.Offset,
	}
}

type productResponse struct {
	product.Product
	LowStock bool `json:"lowStock"`
}

func ListProducts(w http.ResponseWriter, r *http.Request, service service) {
	query := &queryProductsRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		respond.BadRequest(w, r, "Parâmetros inválidos", err)
		return
	}

	products, err := service.ListProducts(r.Context(), query.ToModel())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	body := make([]productResponse, 0, len(products))
	for _, p := range products {
		body = append(body, productResponse{Product: p, LowStock: p.LowStock()})
	}

	respond.JSON(w, r, http.StatusOK, body)
}
