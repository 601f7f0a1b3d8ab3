// Package dynamo provides a DynamoDB implementation of the stampede.Cache interface.
//
// DynamoDB suits cache entries that must survive process restarts and be
// shared across instances without running a dedicated cache fleet. Multiple
// logical caches can share a single table; entries are partitioned by
// cache id.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cache := stampede.NewBlockingCache[string, []byte](
//	    dynamo.NewCache(dynamodb.NewFromConfig(cfg), "stampede-cache", "users"),
//	)
//
// # Table
//
// Create the backing table with:
//
//	aws dynamodb create-table \
//	  --table-name stampede-cache \
//	  --attribute-definitions AttributeName=cache_id,AttributeType=S AttributeName=item_key,AttributeType=S \
//	  --key-schema AttributeName=cache_id,KeyType=HASH AttributeName=item_key,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamo
