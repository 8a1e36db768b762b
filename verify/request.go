package verify

// PutRequest is the body of a PUT /put call.
type PutRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetRequest is the body of a POST /get call.
type GetRequest struct {
	Key string `json:"key"`
}
