package listorders

import (
	"context"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/msalarini/store-lamayer/internal/service/models/order"
	"github.com/msalarini/store-lamayer/internal/transport/http/respond"
)

type service interface {
	GetOrders(ctx context.Context, query order.QueryOrdersModel) ([]order.Order, error)
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

type queryOrdersRequest struct {
	Ids      []int64  `schema:"ids,omitempty"`
	Statuses []string `schema:"status,omitempty"`
	Limit    int      `schema:"limit,omitempty"`
	Offset   int      `schema:"offset,omitempty"`
}

func (q *queryOrdersRequest) ToModel() (order.QueryOrdersModel, error) {
	statuses := make([]order.Status, 0, len(q.Statuses))
	for _, s := range q.Statuses {
		status, err := order.ParseStatus(s)
		if err != nil {
			return order.QueryOrdersModel{}, err
		}
		statuses = append(statuses, status)
	}

	return order.QueryOrdersModel{
		Ids:      q.Ids,
		Statuses: statuses,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}, nil
}

func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		respond.BadRequest(w, r, "Parâmetros inválidos", err)
		return
	}

	model, err := query.ToModel()
	if err != nil {
		respond.BadRequest(w, r, "Status inválido", err)
		return
	}

	orders, err := service.GetOrders(r.Context(), model)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, orders)
}
