package cache

// Response is what the controller reports for one cycle.
type Response struct {
	// Hit is true when the addressed line held valid data for the request
	// address before this cycle's edge.
	Hit bool
	// Data is the stored word for a read hit, and 0 otherwise.
	Data uint64
}

// Update is the state change a cycle schedules for its clock edge.
type Update struct {
	// Reset clears every valid bit and enters the resetting state.
	Reset bool
	// Write stores WriteData at Address and marks the line valid.
	Write     bool
	Address   uint64
	WriteData uint64
}

// Evaluate computes the response and scheduled update for req given the
// pre-edge state of the line it addresses. It does not touch any storage.
//
// Writes always allocate: the line is written and marked valid whether or
// not it was already valid. The write hit flag only reports whether it was.
func Evaluate(config Config, req Request, line Line) (Response, Update) {
	if !req.Valid {
		return Response{}, Update{}
	}

	hit := line.Valid && line.Tag == config.Tag(req.Address)

	switch req.Op {
	case OpWrite:
		return Response{Hit: hit}, Update{
			Write:     true,
			Address:   req.Address & config.AddressMask(),
			WriteData: req.WriteData & config.DataMask(),
		}
	default:
		resp := Response{Hit: hit}
		if hit {
			resp.Data = line.Data
		}
		return resp, Update{}
	}
}
