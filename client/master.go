package client

import (
	"context"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
	"bitbucket.org/terrafocus/lease_backend/models"
)

/* property */

type PropertyClient struct {
	c *Client
}

func (c *Client) Properties() *PropertyClient {
	return &PropertyClient{c: c}
}

func (p *PropertyClient) Create(ctx context.Context, input *models.NewProperty) (*models.Property, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := p.c.execute(ctx, PathProperty, dispatch.PropertyModes, dispatch.OpCreate, params)
	if err != nil {
		return nil, err
	}
	var property models.Property
	if err := resp.DecodeField("data", &property); err != nil {
		return nil, err
	}
	return &property, nil
}

func (p *PropertyClient) Update(ctx context.Context, id int, input *models.NewProperty) (*models.Property, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	params["PropertyID"] = id
	resp, err := p.c.execute(ctx, PathProperty, dispatch.PropertyModes, dispatch.OpUpdate, params)
	if err != nil {
		return nil, err
	}
	var property models.Property
	if err := resp.DecodeField("data", &property); err != nil {
		return nil, err
	}
	return &property, nil
}

func (p *PropertyClient) GetAll(ctx context.Context) ([]*models.Property, error) {
	resp, err := p.c.execute(ctx, PathProperty, dispatch.PropertyModes, dispatch.OpGetAll, nil)
	if err != nil {
		return nil, err
	}
	var properties []*models.Property
	if err := resp.DecodeField("data", &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

func (p *PropertyClient) GetById(ctx context.Context, id int) (*models.Property, error) {
	resp, err := p.c.execute(ctx, PathProperty, dispatch.PropertyModes, dispatch.OpGetById,
		dispatch.Params{"PropertyID": id})
	if err != nil {
		return nil, err
	}
	var property models.Property
	if err := resp.DecodeField("data", &property); err != nil {
		return nil, err
	}
	return &property, nil
}

func (p *PropertyClient) Delete(ctx context.Context, id int) error {
	_, err := p.c.execute(ctx, PathProperty, dispatch.PropertyModes, dispatch.OpDelete,
		dispatch.Params{"PropertyID": id})
	return err
}

func (p *PropertyClient) Search(ctx context.Context, input *models.PropertySearchInput) ([]*models.Property, int64, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, 0, err
	}
	resp, err := p.c.execute(ctx, PathProperty, dispatch.PropertyModes, dispatch.OpSearch, params)
	if err != nil {
		return nil, 0, err
	}
	var properties []*models.Property
	if err := resp.DecodeField("data", &properties); err != nil {
		return nil, 0, err
	}
	var totalCount int64
	_ = resp.DecodeField("totalCount", &totalCount)
	return properties, totalCount, nil
}

func (p *PropertyClient) Statistics(ctx context.Context) (*models.PropertyStatistics, error) {
	resp, err := p.c.execute(ctx, PathProperty, dispatch.PropertyModes, dispatch.OpStatistics, nil)
	if err != nil {
		return nil, err
	}
	var stats models.PropertyStatistics
	if err := resp.DecodeField("table1", &stats.ByType); err != nil {
		return nil, err
	}
	if err := resp.DecodeField("table2", &stats.TopProperties); err != nil {
		return nil, err
	}
	return &stats, nil
}

/* supplier */

type SupplierClient struct {
	c *Client
}

func (c *Client) Suppliers() *SupplierClient {
	return &SupplierClient{c: c}
}

func (s *SupplierClient) Create(ctx context.Context, input *models.NewSupplier) (*models.Supplier, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := s.c.execute(ctx, PathSupplier, dispatch.SupplierModes, dispatch.OpCreate, params)
	if err != nil {
		return nil, err
	}
	var supplier models.Supplier
	if err := resp.DecodeField("data", &supplier); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *SupplierClient) Update(ctx context.Context, id int, input *models.NewSupplier) (*models.Supplier, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	params["SupplierID"] = id
	resp, err := s.c.execute(ctx, PathSupplier, dispatch.SupplierModes, dispatch.OpUpdate, params)
	if err != nil {
		return nil, err
	}
	var supplier models.Supplier
	if err := resp.DecodeField("data", &supplier); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *SupplierClient) GetAll(ctx context.Context) ([]*models.Supplier, error) {
	resp, err := s.c.execute(ctx, PathSupplier, dispatch.SupplierModes, dispatch.OpGetAll, nil)
	if err != nil {
		return nil, err
	}
	var suppliers []*models.Supplier
	if err := resp.DecodeField("data", &suppliers); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *SupplierClient) GetById(ctx context.Context, id int) (*models.Supplier, error) {
	resp, err := s.c.execute(ctx, PathSupplier, dispatch.SupplierModes, dispatch.OpGetById,
		dispatch.Params{"SupplierID": id})
	if err != nil {
		return nil, err
	}
	var supplier models.Supplier
	if err := resp.DecodeField("data", &supplier); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *SupplierClient) Delete(ctx context.Context, id int) error {
	_, err := s.c.execute(ctx, PathSupplier, dispatch.SupplierModes, dispatch.OpDelete,
		dispatch.Params{"SupplierID": id})
	return err
}

func (s *SupplierClient) Search(ctx context.Context, input *models.SupplierSearchInput) ([]*models.Supplier, int64, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, 0, err
	}
	resp, err := s.c.execute(ctx, PathSupplier, dispatch.SupplierModes, dispatch.OpSearch, params)
	if err != nil {
		return nil, 0, err
	}
	var suppliers []*models.Supplier
	if err := resp.DecodeField("data", &suppliers); err != nil {
		return nil, 0, err
	}
	var totalCount int64
	_ = resp.DecodeField("totalCount", &totalCount)
	return suppliers, totalCount, nil
}

func (s *SupplierClient) Statistics(ctx context.Context) (*models.SupplierStatistics, error) {
	resp, err := s.c.execute(ctx, PathSupplier, dispatch.SupplierModes, dispatch.OpStatistics, nil)
	if err != nil {
		return nil, err
	}
	var stats models.SupplierStatistics
	if err := resp.DecodeField("data", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

/* additional charges */

type ChargeClient struct {
	c *Client
}

func (c *Client) Charges() *ChargeClient {
	return &ChargeClient{c: c}
}

func (cc *ChargeClient) Create(ctx context.Context, input *models.NewCharge) (*models.Charge, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := cc.c.execute(ctx, PathCharge, dispatch.ChargeModes, dispatch.OpCreate, params)
	if err != nil {
		return nil, err
	}
	var charge models.Charge
	if err := resp.DecodeField("data", &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

func (cc *ChargeClient) Update(ctx context.Context, id int, input *models.NewCharge) (*models.Charge, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	params["ChargeID"] = id
	resp, err := cc.c.execute(ctx, PathCharge, dispatch.ChargeModes, dispatch.OpUpdate, params)
	if err != nil {
		return nil, err
	}
	var charge models.Charge
	if err := resp.DecodeField("data", &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

func (cc *ChargeClient) GetAll(ctx context.Context) ([]*models.Charge, error) {
	resp, err := cc.c.execute(ctx, PathCharge, dispatch.ChargeModes, dispatch.OpGetAll, nil)
	if err != nil {
		return nil, err
	}
	var charges []*models.Charge
	if err := resp.DecodeField("data", &charges); err != nil {
		return nil, err
	}
	return charges, nil
}

func (cc *ChargeClient) GetById(ctx context.Context, id int) (*models.Charge, error) {
	resp, err := cc.c.execute(ctx, PathCharge, dispatch.ChargeModes, dispatch.OpGetById,
		dispatch.Params{"ChargeID": id})
	if err != nil {
		return nil, err
	}
	var charge models.Charge
	if err := resp.DecodeField("data", &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

func (cc *ChargeClient) Delete(ctx context.Context, id int) error {
	_, err := cc.c.execute(ctx, PathCharge, dispatch.ChargeModes, dispatch.OpDelete,
		dispatch.Params{"ChargeID": id})
	return err
}

func (cc *ChargeClient) Search(ctx context.Context, input *models.ChargeSearchInput) ([]*models.Charge, int64, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, 0, err
	}
	resp, err := cc.c.execute(ctx, PathCharge, dispatch.ChargeModes, dispatch.OpSearch, params)
	if err != nil {
		return nil, 0, err
	}
	var charges []*models.Charge
	if err := resp.DecodeField("data", &charges); err != nil {
		return nil, 0, err
	}
	var totalCount int64
	_ = resp.DecodeField("totalCount", &totalCount)
	return charges, totalCount, nil
}

/* doc types */

type DocTypeClient struct {
	c *Client
}

func (c *Client) DocTypes() *DocTypeClient {
	return &DocTypeClient{c: c}
}

func (d *DocTypeClient) Create(ctx context.Context, input *models.NewDocType) (*models.DocType, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := d.c.execute(ctx, PathDocType, dispatch.DocTypeModes, dispatch.OpCreate, params)
	if err != nil {
		return nil, err
	}
	var docType models.DocType
	if err := resp.DecodeField("data", &docType); err != nil {
		return nil, err
	}
	return &docType, nil
}

func (d *DocTypeClient) Update(ctx context.Context, id int, input *models.NewDocType) (*models.DocType, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	params["DocTypeID"] = id
	resp, err := d.c.execute(ctx, PathDocType, dispatch.DocTypeModes, dispatch.OpUpdate, params)
	if err != nil {
		return nil, err
	}
	var docType models.DocType
	if err := resp.DecodeField("data", &docType); err != nil {
		return nil, err
	}
	return &docType, nil
}

func (d *DocTypeClient) GetAll(ctx context.Context) ([]*models.DocType, error) {
	resp, err := d.c.execute(ctx, PathDocType, dispatch.DocTypeModes, dispatch.OpGetAll, nil)
	if err != nil {
		return nil, err
	}
	var docTypes []*models.DocType
	if err := resp.DecodeField("data", &docTypes); err != nil {
		return nil, err
	}
	return docTypes, nil
}

func (d *DocTypeClient) GetById(ctx context.Context, id int) (*models.DocType, error) {
	resp, err := d.c.execute(ctx, PathDocType, dispatch.DocTypeModes, dispatch.OpGetById,
		dispatch.Params{"DocTypeID": id})
	if err != nil {
		return nil, err
	}
	var docType models.DocType
	if err := resp.DecodeField("data", &docType); err != nil {
		return nil, err
	}
	return &docType, nil
}

func (d *DocTypeClient) Delete(ctx context.Context, id int) error {
	_, err := d.c.execute(ctx, PathDocType, dispatch.DocTypeModes, dispatch.OpDelete,
		dispatch.Params{"DocTypeID": id})
	return err
}
