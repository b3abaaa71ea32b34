package client

import (
	"context"
	"fmt"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
	"bitbucket.org/terrafocus/lease_backend/models"
)

type ContractClient struct {
	c *Client
}

func (c *Client) Contracts() *ContractClient {
	return &ContractClient{c: c}
}

func (cc *ContractClient) Create(ctx context.Context, input *models.NewContract) (*models.Contract, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := cc.c.execute(ctx, PathContract, dispatch.ContractModes, dispatch.OpCreate, params)
	if err != nil {
		return nil, err
	}
	var contract models.Contract
	if err := resp.DecodeField("data", &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

func (cc *ContractClient) Update(ctx context.Context, id int, input *models.NewContract) (*models.Contract, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	params["ContractID"] = id
	resp, err := cc.c.execute(ctx, PathContract, dispatch.ContractModes, dispatch.OpUpdate, params)
	if err != nil {
		return nil, err
	}
	var contract models.Contract
	if err := resp.DecodeField("data", &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

func (cc *ContractClient) GetAll(ctx context.Context) ([]*models.Contract, error) {
	resp, err := cc.c.execute(ctx, PathContract, dispatch.ContractModes, dispatch.OpGetAll, nil)
	if err != nil {
		return nil, err
	}
	var contracts []*models.Contract
	if err := resp.DecodeField("data", &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

func (cc *ContractClient) GetById(ctx context.Context, id int) (*models.Contract, error) {
	resp, err := cc.c.execute(ctx, PathContract, dispatch.ContractModes, dispatch.OpGetById,
		dispatch.Params{"ContractID": id})
	if err != nil {
		return nil, err
	}
	var contract models.Contract
	if err := resp.DecodeField("data", &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

func (cc *ContractClient) Delete(ctx context.Context, id int) error {
	_, err := cc.c.execute(ctx, PathContract, dispatch.ContractModes, dispatch.OpDelete,
		dispatch.Params{"ContractID": id})
	return err
}

func (cc *ContractClient) Search(ctx context.Context, input *models.ContractSearchInput) ([]*models.Contract, int64, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, 0, err
	}
	resp, err := cc.c.execute(ctx, PathContract, dispatch.ContractModes, dispatch.OpSearch, params)
	if err != nil {
		return nil, 0, err
	}
	var contracts []*models.Contract
	if err := resp.DecodeField("data", &contracts); err != nil {
		return nil, 0, err
	}
	var totalCount int64
	_ = resp.DecodeField("totalCount", &totalCount)
	return contracts, totalCount, nil
}

// ChangeStatus guards the hop against the contract machine before the call
// goes out; the server re-checks authoritatively.
func (cc *ContractClient) ChangeStatus(ctx context.Context, contract *models.Contract, newStatus models.ContractStatus, reason string) (*models.Contract, error) {
	if !contract.ContractStatus.CanTransitionTo(newStatus) {
		return nil, newValidationError(fmt.Sprintf("contract %s cannot move from %s to %s",
			contract.ContractNo, contract.ContractStatus, newStatus))
	}
	if newStatus == models.ContractStatusTerminated && reason == "" {
		return nil, newValidationError(fmt.Sprintf("a reason is required to terminate contract %s", contract.ContractNo))
	}
	resp, err := cc.c.execute(ctx, PathContract, dispatch.ContractModes, dispatch.OpChangeStatus,
		dispatch.Params{"ContractID": contract.ID, "NewStatus": string(newStatus), "Reason": reason})
	if err != nil {
		return nil, err
	}
	var updated models.Contract
	if err := resp.DecodeField("data", &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (cc *ContractClient) Statistics(ctx context.Context) (*models.ContractStatistics, error) {
	resp, err := cc.c.execute(ctx, PathContract, dispatch.ContractModes, dispatch.OpStatistics, nil)
	if err != nil {
		return nil, err
	}
	var stats models.ContractStatistics
	if err := resp.DecodeField("data", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (cc *ContractClient) GetExpiring(ctx context.Context, withinDays int) ([]*models.Contract, error) {
	resp, err := cc.c.execute(ctx, PathContract, dispatch.ContractModes, dispatch.OpGetExpiring,
		dispatch.Params{"WithinDays": withinDays})
	if err != nil {
		return nil, err
	}
	var contracts []*models.Contract
	if err := resp.DecodeField("data", &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}
