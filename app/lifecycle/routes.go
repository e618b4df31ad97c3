package lifecycle

import (
	"net/url"
)

type RouteKind string

const (
	RouteHome          RouteKind = "home"
	RouteCompose       RouteKind = "compose"
	RouteCheckout      RouteKind = "checkout"
	RoutePaymentReturn RouteKind = "payment_return"
	RouteTrack         RouteKind = "track"
)

type Route struct {
	Kind         RouteKind
	OrderID      string
	TrackingCode string
}

func (r Route) Path() string {
	switch r.Kind {
	case RouteCompose:
		return "/write"
	case RouteCheckout:
		path := "/checkout/" + url.PathEscape(r.OrderID)
		if r.TrackingCode != "" {
			path += "?" + url.Values{"code": {r.TrackingCode}}.Encode()
		}
		return path
	case RoutePaymentReturn:
		if r.OrderID == "" {
			return "/pay/return"
		}
		return "/pay/return?" + url.Values{"orderId": {r.OrderID}}.Encode()
	case RouteTrack:
		if r.TrackingCode == "" {
			return "/track"
		}
		return "/track/" + url.PathEscape(r.TrackingCode)
	default:
		return "/"
	}
}

func (r Route) String() string {
	return r.Path()
}
