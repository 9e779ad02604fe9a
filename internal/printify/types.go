package printify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nikolayk812/podstore/internal/domain"
	"golang.org/x/text/currency"
)

// flexibleID accepts both string and numeric ids.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*id = flexibleID(n.String())
	return nil
}

type wireOptionValue struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type wireOption struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Values []wireOptionValue `json:"values"`
}

type wireVariant struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Price     int64           `json:"price"`
	IsEnabled bool            `json:"is_enabled"`
	Options   json.RawMessage `json:"options"`
}

type wireImage struct {
	Src        string `json:"src"`
	VariantIDs []int  `json:"variant_ids"`
	Position   string `json:"position"`
	IsDefault  bool   `json:"is_default"`
}

type wireProduct struct {
	ID          flexibleID    `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags"`
	Options     []wireOption  `json:"options"`
	Variants    []wireVariant `json:"variants"`
	Images      []wireImage   `json:"images"`
	Visible     bool          `json:"visible"`
}

type wireProductPage struct {
	CurrentPage int           `json:"current_page"`
	LastPage    int           `json:"last_page"`
	Total       int           `json:"total"`
	Data        []wireProduct `json:"data"`
}

type wireLineItem struct {
	ProductID string `json:"product_id"`
	VariantID int    `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type wireAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
}

type wireOrderRequest struct {
	ExternalID               string         `json:"external_id,omitempty"`
	Label                    string         `json:"label,omitempty"`
	LineItems                []wireLineItem `json:"line_items"`
	SendShippingNotification bool           `json:"send_shipping_notification"`
	AddressTo                wireAddress    `json:"address_to"`
}

type wireOrder struct {
	ID         flexibleID `json:"id"`
	ExternalID string     `json:"external_id"`
	Status     string     `json:"status"`
}

func mapProductToDomain(p wireProduct, unit currency.Unit) (domain.Product, error) {
	groups := make([]domain.OptionGroup, 0, len(p.Options))
	for _, o := range p.Options {
		values := make([]domain.OptionValue, 0, len(o.Values))
		for _, v := range o.Values {
			values = append(values, domain.OptionValue{ID: v.ID, Title: v.Title})
		}
		groups = append(groups, domain.OptionGroup{Name: o.Name, Type: o.Type, Values: values})
	}

	variants := make([]domain.Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		options, err := normalizeVariantOptions(groups, v.Options)
		if err != nil {
			return domain.Product{}, fmt.Errorf("variant %d: %w", v.ID, err)
		}
		variants = append(variants, domain.Variant{
			ID:      v.ID,
			Title:   v.Title,
			Price:   domain.MoneyFromMinor(v.Price, unit),
			Enabled: v.IsEnabled,
			Options: options,
		})
	}

	images := make([]domain.Image, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, domain.Image{
			Src:        img.Src,
			VariantIDs: img.VariantIDs,
			Position:   img.Position,
			IsDefault:  img.IsDefault,
		})
	}

	return domain.Product{
		ID:          string(p.ID),
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		Options:     groups,
		Variants:    variants,
		Images:      images,
		Visible:     p.Visible,
	}, nil
}

func mapOrderRequestToWire(req domain.OrderRequest) wireOrderRequest {
	items := make([]wireLineItem, 0, len(req.Lines))
	for _, l := range req.Lines {
		items = append(items, wireLineItem{
			ProductID: l.ProviderProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
		})
	}

	a := req.Address
	return wireOrderRequest{
		ExternalID:               req.ExternalID,
		Label:                    req.Label,
		LineItems:                items,
		SendShippingNotification: req.SendShippingNotification,
		AddressTo: wireAddress{
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Email:     a.Email,
			Phone:     a.Phone,
			Country:   a.Country,
			Region:    a.State,
			Address1:  a.Address1,
			Address2:  a.Address2,
			City:      a.City,
			Zip:       a.ZipCode,
		},
	}
}

func pageQuery(page, limit int) string {
	return "?page=" + strconv.Itoa(page) + "&limit=" + strconv.Itoa(limit)
}
