// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package docs registers the OpenAPI (Swagger 2.0) description of the HTTP
// API with swag, which http-swagger serves at /swagger/doc.json. Import it
// for its side effect.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/recommend": {
            "post": {
                "description": "Ranks up to ten unrated movies from at least six distinct rated movies.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Recommendations"],
                "summary": "Recommend movies",
                "parameters": [
                    {
                        "description": "Rated movies",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.RecommendRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Ranked recommendations", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "INSUFFICIENT_RATINGS, UNKNOWN_MOVIE or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "No snapshot installed, or the request timed out", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/movies/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Catalog"],
                "summary": "Get a movie with its rating aggregates",
                "parameters": [
                    {"type": "integer", "description": "Movie ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Movie", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Malformed id", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "UNKNOWN_MOVIE", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/movies/{id}/similar": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Catalog"],
                "summary": "List the most similar movies",
                "parameters": [
                    {"type": "integer", "description": "Movie ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 10, "minimum": 1, "maximum": 100, "description": "Number of neighbors", "name": "k", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Neighbors by similarity", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "VALIDATION_ERROR", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "UNKNOWN_MOVIE", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Operations"],
                "summary": "Service counters and persisted indexes",
                "responses": {
                    "200": {"description": "Statistics", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health and snapshot summary",
                "responses": {
                    "200": {"description": "Health", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/health/live": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "Alive", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Snapshot installed", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "No snapshot yet", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/admin/reload": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Operations"],
                "summary": "Queue a snapshot reload",
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "409": {"description": "CONFLICT: a reload is queued or running", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "429": {"description": "TOO_MANY_REQUESTS: inside the minimum gap", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "Reload not configured", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.RatingDTO": {
            "type": "object",
            "properties": {
                "movie_id": {"type": "integer", "example": 318},
                "score": {"type": "number", "example": 4.5}
            }
        },
        "api.RecommendRequest": {
            "type": "object",
            "required": ["ratings"],
            "properties": {
                "ratings": {"type": "array", "maxItems": 1000, "items": {"$ref": "#/definitions/api.RatingDTO"}}
            }
        },
        "api.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "UNKNOWN_MOVIE"},
                "message": {"type": "string"},
                "details": {}
            }
        },
        "api.APIMeta": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "duration_ms": {"type": "integer"}
            }
        },
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/api.APIError"},
                "meta": {"$ref": "#/definitions/api.APIMeta"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Cinematch API",
	Description:      "Item-based collaborative filtering movie recommendations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

//nolint:gochecknoinits // swag discovers specs through registration at init
func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
