package steps

import "encoding/json"

// ValidExample returns a minimal payload that validates for the given step.
// Returns nil for unknown steps.
func ValidExample(step int) json.RawMessage {
	switch step {
	case 1:
		return json.RawMessage(`{"company_name":"Acme SL","legal_id":"B12345678","address":"Calle Mayor 1","city":"Madrid","country":"ES","email":"privacidad@acme.es","phone":"+34911222333","website":"https://acme.es","representative_name":"Ana Pérez"}`)
	case 2:
		return json.RawMessage(`{"categories":["identification","contact","financial"]}`)
	case 3:
		return json.RawMessage(`{"subjects":["customers","employees"]}`)
	case 4:
		return json.RawMessage(`{"main_activity":"Venta online de material de oficina","purposes":["service_provision","billing","customer_support"]}`)
	case 5:
		return json.RawMessage(`{"bases":["contract","legal_obligation"]}`)
	case 6:
		return json.RawMessage(`{"sources":["direct","web_forms"],"cookie_policy_url":"https://acme.es/cookies"}`)
	case 7:
		return json.RawMessage(`{"recipients":[{"name":"Gestoría López","category":"processor","purpose":"contabilidad"}],"has_international_transfers":false}`)
	case 8:
		return json.RawMessage(`{"general_criteria":"Los datos se conservan mientras dure la relación contractual y los plazos legales aplicables.","periods":[{"category":"facturación","period":"6 años"}]}`)
	case 9:
		return json.RawMessage(`{"technical":["encryption","access_control","backups"],"organizational":["training","confidentiality_agreements"]}`)
	case 10:
		return json.RawMessage(`{"contact_channel":"privacidad@acme.es","response_deadline_days":30,"procedure":"Solicitud por escrito acreditando identidad."}`)
	case 11:
		return json.RawMessage(`{"has_automated_decisions":false,"has_profiling":false}`)
	case 12:
		return json.RawMessage(`{"effective_date":"2026-01-01","update_notice_method":"website"}`)
	default:
		return nil
	}
}
