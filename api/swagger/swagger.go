package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LabMS API",
        "description": "Laboratory management API with operator/owner time-slot validation",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and token lifecycle"},
        {"name": "Sessions", "description": "Lab session scheduling and slot validation"},
        {"name": "Inventory", "description": "Equipment, rooms, and chemical stock"},
        {"name": "Notifications", "description": "Per-user notification feed"},
        {"name": "Audit", "description": "Administrative audit trail"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List lab sessions",
                "parameters": [
                    {"name": "state", "in": "query", "type": "string"},
                    {"name": "validationState", "in": "query", "type": "string"},
                    {"name": "roomId", "in": "query", "type": "string"},
                    {"name": "mine", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Propose a new lab session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProposeSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid slots or payload"}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get session detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/sessions/{id}/validate": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Operator validates the proposed schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No pending slot"},
                    "403": {"description": "Not an operator or state forbids the action"}
                }
            }
        },
        "/sessions/{id}/cancel": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Operator cancels the session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not an operator or state forbids the action"}
                }
            }
        },
        "/sessions/{id}/move": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Operator proposes replacement slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or invalid replacement slots"},
                    "403": {"description": "Not an operator or state forbids the action"}
                }
            }
        },
        "/sessions/{id}/slots/approve": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Approve every pending proposed slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No pending slot"}
                }
            }
        },
        "/sessions/{id}/slots/reject": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Reject every pending proposed slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No pending slot"}
                }
            }
        },
        "/sessions/{id}/slots/{slotId}/approve": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Approve a single pending proposed slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "slotId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No pending slot with this id"}
                }
            }
        },
        "/sessions/{id}/slots/{slotId}/reject": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Reject a single pending proposed slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "slotId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No pending slot with this id"}
                }
            }
        },
        "/sessions/{id}/owner/modify": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Owner decides per proposed slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the owner or state forbids the action"}
                }
            }
        },
        "/sessions/{id}/owner/approve": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Owner accepts the operator's changes",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the owner or state forbids the action"}
                }
            }
        },
        "/sessions/{id}/owner/reject": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Owner declines the operator's changes",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the owner or state forbids the action"}
                }
            }
        }
    },
    "definitions": {
        "SlotInput": {
            "type": "object",
            "required": ["startDate", "endDate"],
            "properties": {
                "startDate": {"type": "string", "format": "date-time"},
                "endDate": {"type": "string", "format": "date-time"},
                "referentCurrentId": {"type": "string"}
            }
        },
        "ProposeSessionRequest": {
            "type": "object",
            "required": ["title", "slots"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "roomId": {"type": "string"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/SlotInput"}}
            }
        },
        "ActionRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/SlotInput"}},
                "modifications": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
