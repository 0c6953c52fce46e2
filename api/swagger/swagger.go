package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GardOps API",
        "description": "Shift attendance and coverage API for security guard operations",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Puestos", "description": "Operational post management"},
        {"name": "Pauta", "description": "Monthly roster and attendance state machine"},
        {"name": "TurnosExtra", "description": "Extra shift billing ledger"},
        {"name": "Audit", "description": "Transition audit trail"},
        {"name": "Exports", "description": "Async roster and payroll exports"}
    ],
    "paths": {
        "/puestos": {
            "get": {
                "tags": ["Puestos"],
                "summary": "List posts",
                "parameters": [
                    {"name": "installationId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Puestos"],
                "summary": "Create post",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePostRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/puestos/{id}": {
            "get": {
                "tags": ["Puestos"],
                "summary": "Get post",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Puestos"],
                "summary": "Deactivate post",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/puestos/{id}/asignar": {
            "put": {
                "tags": ["Puestos"],
                "summary": "Assign a guard as title holder",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignGuardRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/puestos/{id}/vacar": {
            "put": {
                "tags": ["Puestos"],
                "summary": "Vacate a post",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/instalaciones/{id}/puestos/vacantes": {
            "get": {
                "tags": ["Puestos"],
                "summary": "List vacant posts of an installation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pauta": {
            "get": {
                "tags": ["Pauta"],
                "summary": "Monthly roster view",
                "parameters": [
                    {"name": "installationId", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "month", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pauta/generar": {
            "post": {
                "tags": ["Pauta"],
                "summary": "Generate planned entries for a month",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateMonthRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pauta/{id}": {
            "get": {
                "tags": ["Pauta"],
                "summary": "Get one shift plan entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pauta/{id}/asistencia": {
            "put": {
                "tags": ["Pauta"],
                "summary": "Mark a planned entry as worked or absent",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Transition not allowed from current state"}
                }
            }
        },
        "/pauta/{id}/cobertura": {
            "put": {
                "tags": ["Pauta"],
                "summary": "Resolve an absence as replaced or uncovered",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveCoverageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Entry is not absent"}
                }
            }
        },
        "/pauta/{id}/deshacer": {
            "post": {
                "tags": ["Pauta"],
                "summary": "Reset a marked entry back to planned",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Entry is already planned"}
                }
            }
        },
        "/pauta/{id}/estado-ui": {
            "put": {
                "tags": ["Pauta"],
                "summary": "Set the display status tag",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DisplayStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pauta/{id}/historial": {
            "get": {
                "tags": ["Pauta"],
                "summary": "Transition history of one entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/turnos-extra": {
            "get": {
                "tags": ["TurnosExtra"],
                "summary": "List ledger entries",
                "parameters": [
                    {"name": "installationId", "in": "query", "type": "string"},
                    {"name": "postId", "in": "query", "type": "string"},
                    {"name": "paid", "in": "query", "type": "boolean"},
                    {"name": "includeVoided", "in": "query", "type": "boolean"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["TurnosExtra"],
                "summary": "Record a billable extra shift",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordExtraShiftRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Live entry already exists for the post and date"}
                }
            }
        },
        "/turnos-extra/{id}": {
            "get": {
                "tags": ["TurnosExtra"],
                "summary": "Get one ledger entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/turnos-extra/{id}/pagar": {
            "put": {
                "tags": ["TurnosExtra"],
                "summary": "Fold a ledger entry into a payroll batch",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkPaidRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Entry already paid or voided"}
                }
            }
        },
        "/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit entries",
                "parameters": [
                    {"name": "actor", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a roster or payroll export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "OperationalPost": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "installation_id": {"type": "string"},
                "role_id": {"type": "string"},
                "name": {"type": "string"},
                "guard_id": {"type": "string"},
                "vacant": {"type": "boolean"},
                "active": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "ShiftPlanEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "post_id": {"type": "string"},
                "guard_id": {"type": "string"},
                "year": {"type": "integer"},
                "month": {"type": "integer"},
                "day": {"type": "integer"},
                "state": {"type": "string", "enum": ["planned", "worked", "absent", "replaced", "uncovered"]},
                "meta": {"type": "object"},
                "observation": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "ExtraShiftEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "post_id": {"type": "string"},
                "installation_id": {"type": "string"},
                "date": {"type": "string"},
                "origin": {"type": "string", "enum": ["vacancy-fill", "replacement"]},
                "title_holder_id": {"type": "string"},
                "coverage_guard_id": {"type": "string"},
                "amount": {"type": "string"},
                "paid": {"type": "boolean"},
                "payroll_batch_id": {"type": "string"},
                "voided_at": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "ShiftAuditEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "shift_plan_id": {"type": "integer"},
                "action": {"type": "string"},
                "before_state": {"type": "string"},
                "after_state": {"type": "string"},
                "actor_id": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "ExportJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["roster", "payroll"]},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "progress": {"type": "integer"},
                "result_url": {"type": "string"},
                "error_message": {"type": "string"},
                "created_at": {"type": "string"},
                "finished_at": {"type": "string"}
            }
        },
        "CreatePostRequest": {
            "type": "object",
            "properties": {
                "installation_id": {"type": "string"},
                "role_id": {"type": "string"},
                "name": {"type": "string"},
                "guard_id": {"type": "string"}
            },
            "required": ["installation_id", "role_id", "name"]
        },
        "AssignGuardRequest": {
            "type": "object",
            "properties": {
                "guard_id": {"type": "string"}
            },
            "required": ["guard_id"]
        },
        "GenerateMonthRequest": {
            "type": "object",
            "properties": {
                "installation_id": {"type": "string"},
                "year": {"type": "integer"},
                "month": {"type": "integer"}
            },
            "required": ["installation_id", "year", "month"]
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["worked", "absent"]},
                "with_notice": {"type": "boolean"},
                "reason": {"type": "string"},
                "comment": {"type": "string"}
            },
            "required": ["status"]
        },
        "ResolveCoverageRequest": {
            "type": "object",
            "properties": {
                "covered": {"type": "boolean"},
                "coverage_guard_id": {"type": "string"},
                "with_notice": {"type": "boolean"},
                "reason": {"type": "string"},
                "comment": {"type": "string"}
            },
            "required": ["covered"]
        },
        "DisplayStatusRequest": {
            "type": "object",
            "properties": {
                "display_status": {"type": "string"}
            },
            "required": ["display_status"]
        },
        "RecordExtraShiftRequest": {
            "type": "object",
            "properties": {
                "post_id": {"type": "string"},
                "date": {"type": "string"},
                "origin": {"type": "string", "enum": ["vacancy-fill", "replacement"]},
                "title_holder_id": {"type": "string"},
                "coverage_guard_id": {"type": "string"},
                "amount": {"type": "string"}
            },
            "required": ["post_id", "date", "origin", "coverage_guard_id", "amount"]
        },
        "MarkPaidRequest": {
            "type": "object",
            "properties": {
                "payroll_batch_id": {"type": "string"}
            },
            "required": ["payroll_batch_id"]
        },
        "CreateExportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["roster", "payroll"]},
                "installation_id": {"type": "string"},
                "year": {"type": "integer"},
                "month": {"type": "integer"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["type", "installation_id", "year", "month", "format"]
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
