package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Gamification API",
        "description": "XP, levels, badges and notifications for the class portal",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Progression", "description": "XP awards, levels and leaderboard"},
        {"name": "Badges", "description": "Badge catalog with progress"},
        {"name": "Notifications", "description": "User inbox"}
    ],
    "paths": {
        "/progression/actions": {
            "post": {
                "tags": ["Progression"],
                "summary": "Reward a portal action for the current user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ActionAwardRequest"}},
                    {"name": "Idempotency-Key", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown action or malformed related_id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Action restricted to other roles", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Action already rewarded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "One-time action cannot be verified", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progression/quiz-completions": {
            "post": {
                "tags": ["Progression"],
                "summary": "Reward a completed quiz for the current user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuizCompletion"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Attempt already rewarded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progression/awards": {
            "post": {
                "tags": ["Progression"],
                "summary": "Grant XP to a user (teacher, staff, admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AwardRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progression/me": {
            "get": {
                "tags": ["Progression"],
                "summary": "Progression summary of the current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progression/users/{id}": {
            "get": {
                "tags": ["Progression"],
                "summary": "Progression summary of a user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed user id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Only the user or staff may read it", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progression/leaderboard": {
            "get": {
                "tags": ["Progression"],
                "summary": "XP leaderboard",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer", "minimum": 1, "maximum": 100}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/badges": {
            "get": {
                "tags": ["Badges"],
                "summary": "Earned and locked badges of the current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "unread_only", "in": "query", "type": "boolean"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/unread-count": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Count unread notifications",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/read-all": {
            "patch": {
                "tags": ["Notifications"],
                "summary": "Mark every notification as read",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/{id}/read": {
            "patch": {
                "tags": ["Notifications"],
                "summary": "Mark a notification as read",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/{id}": {
            "delete": {
                "tags": ["Notifications"],
                "summary": "Delete a notification",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/system/stats": {
            "get": {
                "summary": "Aggregated award and cache counters (admin)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ActionAwardRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["upload_material", "view_material", "download_material", "view_exercise", "like_exercise", "create_exercise", "create_discussion", "forum_comment", "material_comment", "complete_profile", "create_quiz"]},
                "related_id": {"type": "string"},
                "action_key": {"type": "string"}
            }
        },
        "QuizCompletion": {
            "type": "object",
            "required": ["quiz_id", "percentage", "difficulty"],
            "properties": {
                "quiz_id": {"type": "string"},
                "attempt_id": {"type": "string"},
                "percentage": {"type": "number", "minimum": 0, "maximum": 100},
                "difficulty": {"type": "string", "enum": ["easy", "medium", "hard"]}
            }
        },
        "AwardRequest": {
            "type": "object",
            "required": ["user_id", "reason"],
            "properties": {
                "user_id": {"type": "string"},
                "xp_amount": {"type": "integer", "minimum": 0},
                "reason": {"type": "string"},
                "related_id": {"type": "string"},
                "action_key": {"type": "string"}
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
