package uiautomator2

import (
	"context"
	"encoding/json"
)

// Source returns the UI hierarchy as XML.
func (c *Client) Source(ctx context.Context) (string, error) {
	data, err := c.sessionRequest(ctx, "GET", "/source", nil)
	if err != nil {
		return "", err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}

	source, _ := resp.Value.(string)
	return source, nil
}

// SendKeys types text into the currently focused element.
func (c *Client) SendKeys(ctx context.Context, text string) error {
	req := KeysRequest{Text: text, Value: []string{text}}
	_, err := c.sessionRequest(ctx, "POST", "/keys", req)
	return err
}
