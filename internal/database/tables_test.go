package database

import (
	"testing"

	"quickchat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestTableDefinitionsDeclareIndexes(t *testing.T) {
	indexes := map[string][]string{}
	for _, table := range TableDefinitions() {
		name := aws.ToString(table.TableName)
		declared := map[string]bool{}
		for _, attr := range table.AttributeDefinitions {
			declared[aws.ToString(attr.AttributeName)] = true
		}
		for _, gsi := range table.GlobalSecondaryIndexes {
			indexes[name] = append(indexes[name], aws.ToString(gsi.IndexName))
			for _, key := range gsi.KeySchema {
				if !declared[aws.ToString(key.AttributeName)] {
					t.Fatalf("%s.%s uses undeclared attribute %s", name, aws.ToString(gsi.IndexName), aws.ToString(key.AttributeName))
				}
			}
		}
	}

	if got := indexes[model.UsersTable]; len(got) != 1 || got[0] != model.UsersByEmailIndex {
		t.Fatalf("unexpected user indexes %v", got)
	}
	if got := indexes[model.MessagesTable]; len(got) != 2 {
		t.Fatalf("expected 2 message indexes, got %v", got)
	}
}
