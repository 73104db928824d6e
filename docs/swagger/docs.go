// Package swagger holds the OpenAPI document for the MedShelf API and
// registers it with swag so http-swagger can serve /swagger/doc.json.
// Regenerate with: swag init -g cmd/api/main.go -o docs/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Dependency health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Health"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/Health"}}
                }
            }
        },
        "/medicines": {
            "get": {
                "description": "Case-insensitive search over name, brand and notes. pageSize is clamped to [1, 200].",
                "produces": ["application/json"],
                "tags": ["medicines"],
                "summary": "List medicines",
                "parameters": [
                    {"type": "string", "description": "Search term", "name": "q", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 50, max 200)", "name": "pageSize", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MedicineList"}}
                }
            },
            "post": {
                "description": "Creates a medicine. quantity defaults to 0 and accepts a number or numeric string.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medicines"],
                "summary": "Create medicine",
                "parameters": [
                    {"description": "Medicine to create", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMedicineRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Medicine"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/medicines/report.xlsx": {
            "get": {
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["medicines"],
                "summary": "Inventory report",
                "parameters": [
                    {"type": "string", "description": "Search term", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/medicines/stats": {
            "get": {
                "description": "lowStock counts quantity <= threshold; expiringSoon counts expiry on or before today + withinDays, expired included.",
                "produces": ["application/json"],
                "tags": ["medicines"],
                "summary": "Medicine statistics",
                "parameters": [
                    {"type": "string", "description": "Search term", "name": "q", "in": "query"},
                    {"type": "integer", "description": "Low-stock threshold (default 5)", "name": "lowStock", "in": "query"},
                    {"type": "integer", "description": "Expiry window in days (default 30)", "name": "withinDays", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MedicineStats"}}
                }
            }
        },
        "/medicines/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medicines"],
                "summary": "Get medicine",
                "parameters": [
                    {"type": "integer", "description": "Medicine ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Medicine"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medicines"],
                "summary": "Replace medicine",
                "parameters": [
                    {"type": "integer", "description": "Medicine ID", "name": "id", "in": "path", "required": true},
                    {"description": "Full record", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateMedicineRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Medicine"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["medicines"],
                "summary": "Delete medicine",
                "parameters": [
                    {"type": "integer", "description": "Medicine ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "description": "Writes only the fields present in the body. null clears brand, dosage, lot, expires_at and notes.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medicines"],
                "summary": "Update medicine fields",
                "parameters": [
                    {"type": "integer", "description": "Medicine ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateMedicineRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Medicine"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "CreateMedicineRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "brand": {"type": "string", "example": "Tylenol"},
                "dosage": {"type": "string", "example": "500mg"},
                "expires_at": {"type": "string", "example": "2025-01-01"},
                "lot": {"type": "string", "example": "L-2291"},
                "name": {"type": "string", "maxLength": 255, "example": "Paracetamol"},
                "notes": {"type": "string"},
                "quantity": {"type": "integer", "example": 10}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "name is required"}
            }
        },
        "Health": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "ok": {"type": "boolean"}
            }
        },
        "Medicine": {
            "type": "object",
            "properties": {
                "brand": {"type": "string", "example": "Tylenol"},
                "created_at": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "dosage": {"type": "string", "example": "500mg"},
                "expires_at": {"type": "string", "example": "2025-01-01"},
                "id": {"type": "integer", "example": 1},
                "lot": {"type": "string", "example": "L-2291"},
                "name": {"type": "string", "example": "Paracetamol"},
                "notes": {"type": "string", "example": "Keep below 25C"},
                "quantity": {"type": "integer", "example": 10},
                "updated_at": {"type": "string", "example": "2024-01-15T10:30:00Z"}
            }
        },
        "MedicineList": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/Medicine"}},
                "page": {"type": "integer", "example": 1},
                "pageSize": {"type": "integer", "example": 50},
                "total": {"type": "integer", "example": 42}
            }
        },
        "MedicineStats": {
            "type": "object",
            "properties": {
                "expiringSoon": {"type": "integer", "example": 5},
                "expiringWithinDays": {"type": "integer", "example": 30},
                "lowStock": {"type": "integer", "example": 3},
                "lowStockThreshold": {"type": "integer", "example": 5},
                "total": {"type": "integer", "example": 42}
            }
        },
        "UpdateMedicineRequest": {
            "type": "object",
            "properties": {
                "brand": {"type": "string"},
                "dosage": {"type": "string"},
                "expires_at": {"type": "string", "example": "2025-01-01"},
                "lot": {"type": "string"},
                "name": {"type": "string", "example": "Paracetamol"},
                "notes": {"type": "string"},
                "quantity": {"type": "integer", "example": 5}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:4000",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "MedShelf API",
	Description:      "Pharmacy inventory: medicines CRUD, search, stats and reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
