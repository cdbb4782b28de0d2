// Package gateway holds the OpenAPI document served at /swagger/.
//
// Regenerate with: swag init -g internal/gateway/http/router.go -o api/gateway --parseDependency
package gateway

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/chatgate"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/chat": {
            "post": {
                "security": [{"APIKey": []}],
                "description": "Sends the prompt upstream as a single user message and returns the upstream completion document unchanged.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Chat completion",
                "parameters": [
                    {
                        "description": "Prompt",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/gatewaysdk.ChatRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gatewaysdk.ChatCompletion"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}},
                    "401": {"description": "Unauthorized - invalid or expired API key", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}},
                    "502": {"description": "Upstream Error", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}}
                }
            }
        },
        "/current-key": {
            "get": {
                "security": [{"AdminSecret": []}],
                "description": "Returns this week's API key, its expiry and the whole days left before it expires.\nDepending on the rotation policy an expired key is rotated before answering.\nIf the new key could not be persisted the response carries a warning.",
                "produces": ["application/json"],
                "tags": ["Keys"],
                "summary": "Get the current API key",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gatewaysdk.CurrentKeyResponse"}},
                    "403": {"description": "Forbidden - invalid admin secret", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}}
                }
            }
        },
        "/livez": {
            "get": {
                "description": "Liveness endpoint returning basic service health status, uptime, and version information\nThis endpoint always returns 200 OK if the service is running. Also served at /health.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/gatewaysdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Readiness endpoint returning service health status and checks for critical dependencies\nIncludes uptime, version, and status of the key store and the current API key",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/gatewaysdk.HealthResponse"}},
                    "503": {"description": "status, uptime, version, checks - service not ready", "schema": {"$ref": "#/definitions/gatewaysdk.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "gatewaysdk.ChatChoice": {
            "type": "object",
            "properties": {
                "finish_reason": {"type": "string"},
                "index": {"type": "integer"},
                "message": {"$ref": "#/definitions/gatewaysdk.ChatMessage"}
            }
        },
        "gatewaysdk.ChatCompletion": {
            "type": "object",
            "properties": {
                "choices": {"type": "array", "items": {"$ref": "#/definitions/gatewaysdk.ChatChoice"}},
                "id": {"type": "string"},
                "model": {"type": "string"}
            }
        },
        "gatewaysdk.ChatMessage": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "gatewaysdk.ChatRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string", "example": "Write a haiku about Mondays"}
            }
        },
        "gatewaysdk.CurrentKeyResponse": {
            "type": "object",
            "properties": {
                "api_key": {"type": "string", "example": "sk-4edbaceaf79443dc"},
                "days_remaining": {"type": "integer", "example": 6},
                "expiry": {"type": "string", "example": "2024-03-11T10:00:00Z"},
                "warning": {"description": "Warning is set when the key was rotated but could not be persisted.", "type": "string"}
            }
        },
        "gatewaysdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "unauthorized"},
                "error_description": {"type": "string", "example": "invalid or expired API key"}
            }
        },
        "gatewaysdk.HealthChecks": {
            "type": "object",
            "properties": {
                "key": {"description": "Key is \"ok\", \"missing\" or \"expired\"", "type": "string", "example": "ok"},
                "key_store": {"description": "KeyStore is \"ok\" or the ping error", "type": "string", "example": "ok"}
            }
        },
        "gatewaysdk.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"description": "Checks is only set by /readyz", "allOf": [{"$ref": "#/definitions/gatewaysdk.HealthChecks"}]},
                "status": {"description": "Status is \"ok\" or \"degraded\"", "type": "string", "example": "ok"},
                "uptime": {"description": "Uptime is the service uptime (e.g. \"1h23m45s\")", "type": "string", "example": "1h23m45s"},
                "version": {"description": "Version is the service version string", "type": "string", "example": "0.1.0"}
            }
        }
    },
    "securityDefinitions": {
        "APIKey": {"description": "Rotating weekly API key.", "type": "apiKey", "name": "x-api-key", "in": "header"},
        "AdminSecret": {"description": "Administrator secret.", "type": "apiKey", "name": "admin-secret", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "chatgate API Gateway",
	Description:      "Authenticating gateway in front of an OpenAI-compatible chat completion API.\n\nRequests carry a rotating API key in the x-api-key header. The key changes every ISO week\nand is available to administrators from /current-key.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
