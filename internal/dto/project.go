package dto

// Project applies a select document to a response document. Positive values
// switch to inclusion mode (id stays unless explicitly excluded); zero or
// negative values exclude fields from the full document.
func Project(doc map[string]any, sel map[string]int) map[string]any {
	if len(sel) == 0 {
		return doc
	}

	include := false
	for _, v := range sel {
		if v > 0 {
			include = true
			break
		}
	}

	out := make(map[string]any, len(doc))
	if include {
		for field, v := range sel {
			if v > 0 {
				if value, ok := doc[field]; ok {
					out[field] = value
				}
			}
		}
		if v, explicit := sel["id"]; !explicit || v > 0 {
			out["id"] = doc["id"]
		} else {
			delete(out, "id")
		}
		return out
	}

	for field, value := range doc {
		if _, excluded := sel[field]; !excluded {
			out[field] = value
		}
	}
	return out
}
