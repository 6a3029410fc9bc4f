package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LAAC API",
        "description": "Learning analytics metric computation over xAPI statements",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Health", "description": "Liveness and LRS connectivity"},
        {"name": "Metrics", "description": "Metric catalog, computation and cache control"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "JWT bearer token, e.g. \"Bearer {token}\""
        }
    },
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/health/lrs": {
            "get": {
                "tags": ["Health"],
                "summary": "Per-instance Learning Record Store connectivity",
                "responses": {
                    "200": {"description": "All healthy or degraded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "No healthy instance", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Health"],
                "summary": "Prometheus metrics exposition",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/metrics": {
            "get": {
                "tags": ["Metrics"],
                "summary": "List available metrics with their contracts",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/metrics/{metricId}": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Compute a metric",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "metricId", "in": "path", "type": "string", "required": true},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "topicId", "in": "query", "type": "string"},
                    {"name": "elementId", "in": "query", "type": "string"},
                    {"name": "userId", "in": "query", "type": "string"},
                    {"name": "groupId", "in": "query", "type": "string"},
                    {"name": "since", "in": "query", "type": "string", "description": "RFC3339 timestamp"},
                    {"name": "until", "in": "query", "type": "string", "description": "RFC3339 timestamp"},
                    {"name": "instanceId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid parameters", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown metric", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "LRS unavailable and no stale result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/metrics/{metricId}/cache": {
            "delete": {
                "tags": ["Metrics"],
                "summary": "Drop every cached result for a metric",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "metricId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Missing metrics:admin scope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown metric", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "MetricResult": {
            "type": "object",
            "properties": {
                "metricId": {"type": "string"},
                "value": {"type": "object"},
                "computed": {"type": "string"},
                "metadata": {"type": "object"},
                "instanceId": {"type": "string"},
                "fromCache": {"type": "boolean"},
                "computationTime": {"type": "integer"}
            }
        },
        "InstanceHealth": {
            "type": "object",
            "properties": {
                "instanceId": {"type": "string"},
                "healthy": {"type": "boolean"},
                "latencyMs": {"type": "integer"},
                "error": {"type": "string"},
                "checkedAt": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
