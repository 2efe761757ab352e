package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ecell-portal/internal/domain"
)

// TicketRepo is the durable ticket ledger. PK: ticket_id.
//
// The ledger never deletes tickets; a ticket moves through exactly one state
// transition (created -> used), enforced with conditional writes so the
// transition can succeed at most once even under concurrent redeemers.
type TicketRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTicketRepo(client *dynamodb.Client, tableName string) *TicketRepo {
	return &TicketRepo{client: client, tableName: tableName}
}

// Create inserts a ticket in state created. An existing ticket_id yields
// domain.ErrDuplicateIdentifier rather than a silent overwrite.
func (r *TicketRepo) Create(ctx context.Context, t *domain.Ticket) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(ticket_id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("ticket %s: %w", t.TicketID, domain.ErrDuplicateIdentifier)
	}
	return err
}

func (r *TicketRepo) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("ticket_id", ticketID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, domain.ErrTicketNotFound)
	}
	var t domain.Ticket
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkUsed atomically transitions the ticket from created to used. The
// condition expression is the compare-and-set that guarantees at-most-once
// redemption: a second caller hits ConditionalCheckFailed and gets
// domain.ErrTicketAlreadyRedeemed, never a second success.
func (r *TicketRepo) MarkUsed(ctx context.Context, ticketID string, usedAt time.Time) (*domain.Ticket, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("ticket_id", ticketID),
		UpdateExpression:    aws.String("SET #s = :used, used_at = :at"),
		ConditionExpression: aws.String("attribute_exists(ticket_id) AND #s = :created"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":used":    &types.AttributeValueMemberS{Value: string(domain.TicketUsed)},
			":created": &types.AttributeValueMemberS{Value: string(domain.TicketCreated)},
			":at":      &types.AttributeValueMemberS{Value: usedAt.UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		// Either the ticket is missing or it is already used; disambiguate
		// with a read so the caller can report the original redemption time.
		t, getErr := r.Get(ctx, ticketID)
		if getErr != nil {
			return nil, getErr
		}
		return t, fmt.Errorf("ticket %s: %w", ticketID, domain.ErrTicketAlreadyRedeemed)
	}
	if err != nil {
		return nil, err
	}
	var t domain.Ticket
	if err := attributevalue.UnmarshalMap(out.Attributes, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByCreatedDesc returns all tickets, newest first.
func (r *TicketRepo) ListByCreatedDesc(ctx context.Context) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Ticket
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		tickets = append(tickets, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}
