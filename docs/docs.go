// Package docs holds the OpenAPI description of the /v1 API, kept in step
// with the handler annotations and registered with swag at init.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Host login",
                "parameters": [
                    {
                        "description": "credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/questionnaire": {
            "get": {
                "produces": ["application/json"],
                "tags": ["survey"],
                "summary": "Active questionnaire",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.QuestionnaireResponse"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Open a survey session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.SessionCreated"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "security": [{"HostToken": []}],
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Mirrored state of a live session",
                "parameters": [
                    {"type": "string", "description": "session id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionSnapshot"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/session": {
            "get": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current view",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SurveyView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"SessionToken": []}],
                "tags": ["session"],
                "summary": "Close the session",
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/session/start": {
            "post": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Leave the welcome screen",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.OperationResult"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/session/answer": {
            "post": {
                "security": [{"SessionToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Answer the current question",
                "parameters": [
                    {
                        "description": "answer",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.AnswerRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.OperationResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/session/previous": {
            "post": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Go back one question",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.OperationResult"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/session/next": {
            "post": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Go forward one question",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.OperationResult"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/session/submit": {
            "post": {
                "security": [{"SessionToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Submit the survey",
                "parameters": [
                    {
                        "description": "pre-answered confirmation",
                        "name": "body",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/handler.SubmitRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.OperationResult"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/responses": {
            "get": {
                "security": [{"HostToken": []}],
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Recent submissions",
                "parameters": [
                    {"type": "integer", "description": "max results", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Response"}}}
                }
            }
        },
        "/responses/{id}": {
            "get": {
                "security": [{"HostToken": []}],
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "One submission",
                "parameters": [
                    {"type": "string", "description": "response id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "security": [{"HostToken": []}],
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Per-question answer distribution",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.StatsReport"}}
                }
            }
        }
    },
    "definitions": {
        "handler.AnswerRequest": {
            "type": "object",
            "properties": {"answer": {"type": "string"}}
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.QuestionnaireResponse": {
            "type": "object",
            "properties": {"questions": {"type": "array", "items": {"$ref": "#/definitions/model.Question"}}}
        },
        "handler.SubmitRequest": {
            "type": "object",
            "properties": {"confirmed": {"type": "boolean"}}
        },
        "model.Answer": {
            "type": "object",
            "properties": {"questionId": {"type": "integer"}, "answer": {"type": "string"}}
        },
        "model.LoginRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "model.LoginResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "hostId": {"type": "string"}}
        },
        "model.Notification": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["error", "success"]},
                "message": {"type": "string"},
                "position": {"type": "string"},
                "autoCloseMs": {"type": "integer"},
                "at": {"type": "string"}
            }
        },
        "model.OperationResult": {
            "type": "object",
            "properties": {
                "view": {"$ref": "#/definitions/model.SurveyView"},
                "notifications": {"type": "array", "items": {"$ref": "#/definitions/model.Notification"}},
                "outcome": {"type": "string", "enum": ["incomplete", "declined", "accepted", "acknowledged"]},
                "missing": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "model.OptionView": {
            "type": "object",
            "properties": {"value": {"type": "integer"}, "selected": {"type": "boolean"}}
        },
        "model.Question": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "prompt": {"type": "string"},
                "kind": {"type": "string", "enum": ["rating", "text"]},
                "options": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "model.QuestionStats": {
            "type": "object",
            "properties": {
                "questionId": {"type": "integer"},
                "prompt": {"type": "string"},
                "kind": {"type": "string"},
                "counts": {"type": "object", "additionalProperties": {"type": "integer"}},
                "total": {"type": "integer"},
                "average": {"type": "number"},
                "texts": {"type": "array", "items": {"type": "string"}}
            }
        },
        "model.Response": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "sessionId": {"type": "string"},
                "channel": {"type": "string"},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/model.Answer"}},
                "startedAt": {"type": "string"},
                "submittedAt": {"type": "string"}
            }
        },
        "model.SessionCreated": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "token": {"type": "string"},
                "view": {"$ref": "#/definitions/model.SurveyView"}
            }
        },
        "model.SessionSnapshot": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "channel": {"type": "string"},
                "state": {"$ref": "#/definitions/model.SurveyState"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.StatsReport": {
            "type": "object",
            "properties": {
                "responses": {"type": "integer"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/model.QuestionStats"}}
            }
        },
        "model.SurveyState": {
            "type": "object",
            "properties": {
                "currentIndex": {"type": "integer"},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/model.Answer"}},
                "completed": {"type": "boolean"}
            }
        },
        "model.SurveyView": {
            "type": "object",
            "properties": {
                "screen": {"type": "string", "enum": ["welcome", "question", "thank_you"]},
                "title": {"type": "string"},
                "message": {"type": "string"},
                "index": {"type": "integer"},
                "total": {"type": "integer"},
                "question": {"$ref": "#/definitions/model.Question"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/model.OptionView"}},
                "text": {"type": "string"},
                "answered": {"type": "boolean"},
                "answeredCount": {"type": "integer"},
                "canPrevious": {"type": "boolean"},
                "canNext": {"type": "boolean"},
                "canSubmit": {"type": "boolean"},
                "completed": {"type": "boolean"},
                "awaitingConfirmation": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "HostToken": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "SessionToken": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Feedback Survey API",
	Description:      "Customer feedback survey sessions over REST, WebSocket and Telegram",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
