package services

// RouteKind names the external capability chosen for a turn.
type RouteKind string

const (
	RouteVision    RouteKind = "vision"
	RouteRetrieval RouteKind = "retrieval"
	RoutePlain     RouteKind = "plain"
)

// Route is the router's decision: which capability to call and with what
// parameters. MaxTokens 0 means the server default.
type Route struct {
	Kind      RouteKind
	Model     string
	MaxTokens int
}

// Vision responses are capped tighter than text-only ones.
const visionMaxTokens = 1024

// ModelRouter maps an attachment classification plus the retrieval flag to a
// capability. The decision is a priority list, not independent conditions:
// vision beats retrieval beats plain chat.
type ModelRouter struct {
	textModel   string
	visionModel string
}

func NewModelRouter(textModel, visionModel string) ModelRouter {
	return ModelRouter{textModel: textModel, visionModel: visionModel}
}

// Decide picks the route. Legacy URI attachments force retrieval mode on
// regardless of the explicit flag; that historical fallback OCRs the URI and
// ingests it before querying.
func (r ModelRouter) Decide(cls AttachmentClassification, useRAG bool) Route {
	if cls.HasVision() {
		return Route{Kind: RouteVision, Model: r.visionModel, MaxTokens: visionMaxTokens}
	}
	if useRAG || len(cls.URIs) > 0 {
		return Route{Kind: RouteRetrieval, Model: r.textModel}
	}
	return Route{Kind: RoutePlain, Model: r.textModel}
}
