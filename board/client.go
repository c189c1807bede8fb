// ABOUTME: monday.com GraphQL client for one vendor board
// ABOUTME: Reads columns, pages through items, and writes items and subitems
package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/ProxiMyti/proximyti-monday-integration/schema"
)

const (
	DefaultAPIURL = "https://api.monday.com/v2"
	pageSize      = 100
)

// ErrAPI wraps GraphQL errors and non-2xx responses from the board API.
var ErrAPI = errors.New("board api error")

// ColumnValue is one cell of a board item.
type ColumnValue struct {
	ID    string
	Text  string
	Value string
}

// Subitem is a child row of a board item.
type Subitem struct {
	ID      string
	Name    string
	BoardID string
}

// Item is one board row with its cells and subitems.
type Item struct {
	ID       string
	Name     string
	Columns  []ColumnValue
	Subitems []Subitem
}

// Value returns the cell for columnID.
func (i Item) Value(columnID string) (ColumnValue, bool) {
	for _, cv := range i.Columns {
		if cv.ID == columnID {
			return cv, true
		}
	}
	return ColumnValue{}, false
}

type Client struct {
	http    *resty.Client
	apiURL  string
	boardID string
}

// NewClient returns a client for boardID. Retries are left off: a failed
// call is reported once and picked up by the next run.
func NewClient(apiURL, token, boardID string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	http := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", token).
		SetRetryCount(0)

	return &Client{http: http, apiURL: apiURL, boardID: boardID}
}

func (c *Client) BoardID() string {
	return c.boardID
}

// do runs one GraphQL operation and returns its data object.
func (c *Client) do(ctx context.Context, query string, vars map[string]any) (gjson.Result, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"query": query, "variables": vars}).
		Post(c.apiURL)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to call board api: %w", err)
	}

	body := gjson.ParseBytes(resp.Body())
	if resp.IsError() {
		msg := body.Get("error_message").String()
		if msg == "" {
			msg = resp.Status()
		}
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrAPI, msg)
	}
	if errs := body.Get("errors"); errs.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrAPI, errs.Raw)
	}
	if msg := body.Get("error_message"); msg.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrAPI, msg.String())
	}

	return body.Get("data"), nil
}

// Me returns the name of the account the token belongs to.
func (c *Client) Me(ctx context.Context) (string, error) {
	data, err := c.do(ctx, `query { me { name } }`, nil)
	if err != nil {
		return "", err
	}
	return data.Get("me.name").String(), nil
}

// Columns returns the board's column definitions.
func (c *Client) Columns(ctx context.Context) ([]schema.Column, error) {
	const query = `
    query ($boardId: [ID!]!) {
      boards (ids: $boardId) {
        columns { id title type }
      }
    }`

	data, err := c.do(ctx, query, map[string]any{"boardId": []string{c.boardID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch columns: %w", err)
	}

	board := data.Get("boards.0")
	if !board.Exists() {
		return nil, fmt.Errorf("%w: board %s not found", ErrAPI, c.boardID)
	}

	var columns []schema.Column
	board.Get("columns").ForEach(func(_, col gjson.Result) bool {
		columns = append(columns, schema.Column{
			ID:    col.Get("id").String(),
			Title: col.Get("title").String(),
			Type:  col.Get("type").String(),
		})
		return true
	})
	return columns, nil
}

const itemFields = `
          id
          name
          column_values { id text value }
          subitems { id name board { id } }`

// Items returns every item on the board, following the page cursor.
func (c *Client) Items(ctx context.Context) ([]Item, error) {
	first := `
    query ($boardId: [ID!]!, $limit: Int!) {
      boards (ids: $boardId) {
        items_page (limit: $limit) {
          cursor
          items {` + itemFields + `
          }
        }
      }
    }`

	data, err := c.do(ctx, first, map[string]any{"boardId": []string{c.boardID}, "limit": pageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	page := data.Get("boards.0.items_page")
	items := parseItems(page.Get("items"))
	cursor := page.Get("cursor").String()

	next := `
    query ($cursor: String!, $limit: Int!) {
      next_items_page (cursor: $cursor, limit: $limit) {
        cursor
        items {` + itemFields + `
        }
      }
    }`

	for cursor != "" {
		data, err := c.do(ctx, next, map[string]any{"cursor": cursor, "limit": pageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch items page: %w", err)
		}
		page := data.Get("next_items_page")
		items = append(items, parseItems(page.Get("items"))...)
		cursor = page.Get("cursor").String()
	}

	return items, nil
}

// FindItemID returns the id of the first item whose columnID cell equals value.
func (c *Client) FindItemID(ctx context.Context, columnID, value string) (string, bool, error) {
	const query = `
    query ($boardId: ID!, $columnId: String!, $value: String!) {
      items_page_by_column_values (
        board_id: $boardId,
        limit: 1,
        columns: [{ column_id: $columnId, column_values: [$value] }]
      ) {
        items { id }
      }
    }`

	data, err := c.do(ctx, query, map[string]any{"boardId": c.boardID, "columnId": columnID, "value": value})
	if err != nil {
		return "", false, err
	}

	id := data.Get("items_page_by_column_values.items.0.id").String()
	return id, id != "", nil
}

// Subitems returns the subitems of one item.
func (c *Client) Subitems(ctx context.Context, itemID string) ([]Subitem, error) {
	const query = `
    query ($itemId: [ID!]!) {
      items (ids: $itemId) {
        subitems { id name board { id } }
      }
    }`

	data, err := c.do(ctx, query, map[string]any{"itemId": []string{itemID}})
	if err != nil {
		return nil, err
	}
	return parseSubitems(data.Get("items.0.subitems")), nil
}

// CreateItem adds an item and returns its id.
func (c *Client) CreateItem(ctx context.Context, name string, values map[string]any) (string, error) {
	const query = `
    mutation ($boardId: ID!, $itemName: String!, $columnValues: JSON!) {
      create_item (board_id: $boardId, item_name: $itemName, column_values: $columnValues) {
        id
      }
    }`

	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode column values: %w", err)
	}

	data, err := c.do(ctx, query, map[string]any{
		"boardId":      c.boardID,
		"itemName":     name,
		"columnValues": string(encoded),
	})
	if err != nil {
		return "", err
	}
	return data.Get("create_item.id").String(), nil
}

// UpdateItem overwrites several cells of an item at once.
func (c *Client) UpdateItem(ctx context.Context, itemID string, values map[string]any) error {
	const query = `
    mutation ($boardId: ID!, $itemId: ID!, $columnValues: JSON!) {
      change_multiple_column_values (board_id: $boardId, item_id: $itemId, column_values: $columnValues) {
        id
      }
    }`

	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode column values: %w", err)
	}

	_, err = c.do(ctx, query, map[string]any{
		"boardId":      c.boardID,
		"itemId":       itemID,
		"columnValues": string(encoded),
	})
	return err
}

// SetColumnValue writes a text value into one cell.
func (c *Client) SetColumnValue(ctx context.Context, itemID, columnID, value string) error {
	const query = `
    mutation ($boardId: ID!, $itemId: ID!, $columnId: String!, $value: JSON!) {
      change_column_value (board_id: $boardId, item_id: $itemId, column_id: $columnId, value: $value) {
        id
      }
    }`

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	_, err = c.do(ctx, query, map[string]any{
		"boardId":  c.boardID,
		"itemId":   itemID,
		"columnId": columnID,
		"value":    string(encoded),
	})
	return err
}

// CreateSubitem adds a subitem under parentID.
func (c *Client) CreateSubitem(ctx context.Context, parentID, name string) (Subitem, error) {
	const query = `
    mutation ($parentItemId: ID!, $itemName: String!) {
      create_subitem (parent_item_id: $parentItemId, item_name: $itemName) {
        id
        name
        board { id }
      }
    }`

	data, err := c.do(ctx, query, map[string]any{"parentItemId": parentID, "itemName": name})
	if err != nil {
		return Subitem{}, err
	}
	return parseSubitem(data.Get("create_subitem")), nil
}

// RenameSubitem changes a subitem's name. Subitems live on their own board.
func (c *Client) RenameSubitem(ctx context.Context, sub Subitem, name string) error {
	const query = `
    mutation ($boardId: ID!, $itemId: ID!, $value: String!) {
      change_simple_column_value (board_id: $boardId, item_id: $itemId, column_id: "name", value: $value) {
        id
      }
    }`

	_, err := c.do(ctx, query, map[string]any{"boardId": sub.BoardID, "itemId": sub.ID, "value": name})
	return err
}

func parseItems(list gjson.Result) []Item {
	var items []Item
	list.ForEach(func(_, it gjson.Result) bool {
		item := Item{
			ID:       it.Get("id").String(),
			Name:     it.Get("name").String(),
			Subitems: parseSubitems(it.Get("subitems")),
		}
		it.Get("column_values").ForEach(func(_, cv gjson.Result) bool {
			item.Columns = append(item.Columns, ColumnValue{
				ID:    cv.Get("id").String(),
				Text:  cv.Get("text").String(),
				Value: cv.Get("value").String(),
			})
			return true
		})
		items = append(items, item)
		return true
	})
	return items
}

func parseSubitems(list gjson.Result) []Subitem {
	var subs []Subitem
	list.ForEach(func(_, sub gjson.Result) bool {
		subs = append(subs, parseSubitem(sub))
		return true
	})
	return subs
}

func parseSubitem(sub gjson.Result) Subitem {
	return Subitem{
		ID:      sub.Get("id").String(),
		Name:    sub.Get("name").String(),
		BoardID: sub.Get("board.id").String(),
	}
}
