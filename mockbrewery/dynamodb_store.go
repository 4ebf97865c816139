package mockbrewery

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

const (
	// Schema of the DynamoDB table
	tablePartitionKey = "namespace"
	tableSortKey      = "key"
	itemJSONAttribute = "item"
	upcOwnerAttribute = "id"

	beersNamespace = "beers"
	upcsNamespace  = "upcs"

	tableCreationTimeout = 30 * time.Second
)

// dynamoDBBackend uses a single table, with beers and the UPC index as two partitions.
type dynamoDBBackend struct {
	client *dynamodb.Client
	table  string
}

// openDynamoDBBackend uses the default AWS configuration chain for region and credentials. If
// endpoint is set, it overrides the service endpoint, for instance to use DynamoDB Local. The
// table is created if it does not exist.
func openDynamoDBBackend(ctx context.Context, endpoint, table string) (*dynamoDBBackend, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	d := &dynamoDBBackend{client: client, table: table}
	if err := d.ensureTable(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dynamoDBBackend) ensureTable(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	var notFound *types.ResourceNotFoundException
	if err == nil || !errors.As(err, &notFound) {
		return err
	}
	_, err = d.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(d.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(tablePartitionKey), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(tableSortKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(tablePartitionKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(tableSortKey), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return err
	}
	return dynamodb.NewTableExistsWaiter(d.client).Wait(ctx,
		&dynamodb.DescribeTableInput{TableName: aws.String(d.table)}, tableCreationTimeout)
}

func itemKey(namespace, key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		tablePartitionKey: &types.AttributeValueMemberS{Value: namespace},
		tableSortKey:      &types.AttributeValueMemberS{Value: key},
	}
}

func stringAttribute(item map[string]types.AttributeValue, name string) (string, bool) {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value, true
	}
	return "", false
}

func (d *dynamoDBBackend) getItem(ctx context.Context, namespace, key string) (map[string]types.AttributeValue, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            itemKey(namespace, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil || result == nil {
		return nil, err
	}
	return result.Item, nil
}

func (d *dynamoDBBackend) load(ctx context.Context, id int) (servicedef.Beer, bool, error) {
	var beer servicedef.Beer
	item, err := d.getItem(ctx, beersNamespace, strconv.Itoa(id))
	if err != nil || item == nil {
		return beer, false, err
	}
	data, ok := stringAttribute(item, itemJSONAttribute)
	if !ok {
		return beer, false, errors.New("DynamoDB beer item has no JSON attribute")
	}
	return beer, true, json.Unmarshal([]byte(data), &beer)
}

func (d *dynamoDBBackend) findUPC(ctx context.Context, upc string) (int, bool, error) {
	item, err := d.getItem(ctx, upcsNamespace, upc)
	if err != nil || item == nil {
		return 0, false, err
	}
	value, _ := stringAttribute(item, upcOwnerAttribute)
	id, err := strconv.Atoi(value)
	return id, err == nil, err
}

func (d *dynamoDBBackend) save(ctx context.Context, beer servicedef.Beer, previousUPC string) error {
	data, err := json.Marshal(beer)
	if err != nil {
		return err
	}
	id := strconv.Itoa(beer.IDValue())
	beerItem := itemKey(beersNamespace, id)
	beerItem[itemJSONAttribute] = &types.AttributeValueMemberS{Value: string(data)}
	upcItem := itemKey(upcsNamespace, beer.UPC)
	upcItem[upcOwnerAttribute] = &types.AttributeValueMemberS{Value: id}

	items := []types.TransactWriteItem{
		{Put: &types.Put{TableName: aws.String(d.table), Item: beerItem}},
		{Put: &types.Put{TableName: aws.String(d.table), Item: upcItem}},
	}
	if previousUPC != "" && previousUPC != beer.UPC {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{TableName: aws.String(d.table), Key: itemKey(upcsNamespace, previousUPC)},
		})
	}
	_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return err
}

func (d *dynamoDBBackend) remove(ctx context.Context, beer servicedef.Beer) error {
	_, err := d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{TableName: aws.String(d.table), Key: itemKey(beersNamespace, strconv.Itoa(beer.IDValue()))}},
			{Delete: &types.Delete{TableName: aws.String(d.table), Key: itemKey(upcsNamespace, beer.UPC)}},
		},
	})
	return err
}

// keys returns the sort keys of every item in a namespace.
func (d *dynamoDBBackend) keys(ctx context.Context, namespace string) ([]string, error) {
	paginator := dynamodb.NewQueryPaginator(d.client, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		ConsistentRead:         aws.Bool(true),
		KeyConditionExpression: aws.String("#ns = :ns"),
		ProjectionExpression:   aws.String("#k"),
		ExpressionAttributeNames: map[string]string{
			"#ns": tablePartitionKey,
			"#k":  tableSortKey,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ns": &types.AttributeValueMemberS{Value: namespace},
		},
	})
	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if k, ok := stringAttribute(item, tableSortKey); ok {
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}

func (d *dynamoDBBackend) maxID(ctx context.Context) (int, error) {
	keys, err := d.keys(ctx, beersNamespace)
	if err != nil {
		return 0, err
	}
	return highestNumericKey(keys), nil
}

// reset removes everything this backend has written. Tests use it to start from an empty store.
func (d *dynamoDBBackend) reset(ctx context.Context) error {
	for _, namespace := range []string{beersNamespace, upcsNamespace} {
		keys, err := d.keys(ctx, namespace)
		if err != nil {
			return err
		}
		for _, k := range keys {
			_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(d.table),
				Key:       itemKey(namespace, k),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *dynamoDBBackend) close() error { return nil }
