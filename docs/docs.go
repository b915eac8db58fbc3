// Package docs registers the OpenAPI document served at /docs.
//
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "GemScout"},
        "license": {"name": "MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/players": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "List players",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Page size (max 200)", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "Rows to skip", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.Dashboard"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/players/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "Get player dashboard",
                "parameters": [
                    {"type": "integer", "description": "FotMob player id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/store.Dashboard"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/teams": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reference"],
                "summary": "List teams",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}}
            }
        },
        "/countries": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reference"],
                "summary": "List countries",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}}
            }
        },
        "/ingest/player": {
            "post": {
                "consumes": ["application/json", "text/html"],
                "produces": ["application/json"],
                "tags": ["ingest"],
                "summary": "Ingest a player snapshot",
                "parameters": [
                    {"type": "string", "description": "gjson path of the entity container", "name": "container", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "updated", "schema": {"$ref": "#/definitions/handler.IngestResponse"}},
                    "201": {"description": "created", "schema": {"$ref": "#/definitions/handler.IngestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.IngestResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "fotmob_id": {"type": "integer"},
                "player_id": {"type": "integer"},
                "team_linked": {"type": "boolean"},
                "position_mapped": {"type": "boolean"}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "detail": {"type": "string"}
                    }
                }
            }
        },
        "store.Dashboard": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "age": {"type": "integer"},
                "nationality": {"type": "string"},
                "image_url": {"type": "string"},
                "team_name": {"type": "string"},
                "position_group": {"type": "string", "enum": ["Goalkeeper", "Centre-Back", "Full-Back", "Midfielder", "Winger_AM", "Striker"]},
                "specific_positions": {"type": "array", "items": {"type": "string"}},
                "height_cm": {"type": "integer"},
                "preferred_foot": {"type": "string"},
                "current_gem_score": {"type": "number"},
                "current_market_value": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "GemScout Data API",
	Description:      "Football scouting API: player dashboards read from the store and snapshot ingestion through the upsert engine.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
