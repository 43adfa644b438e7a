package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed vectors.sql
var vectorsSQL string

//go:embed graph.sql
var graphSQL string

// Function lists for verification
var VectorsFunctions = []string{
	"init_vectors",
	"upsert_vector",
	"select_vectors_by_similarity",
	"delete_vector",
	"delete_vectors_by_document",
}

var GraphFunctions = []string{
	"init_graph",
	"upsert_node",
	"select_node",
	"delete_node",
	"insert_relationship",
	"select_relationships_of_node",
	"select_neighborhood",
	"shortest_path",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadVectorsSql loads vector-related SQL functions
func LoadVectorsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, VectorsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing vectors functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(vectorsSQL)
	if err != nil {
		return fmt.Errorf("error executing vectors SQL: %w", err)
	}

	exist, err := checkFunctions(db, VectorsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL vectors functions loaded successfully")
	return nil
}

// LoadGraphSql loads graph-related SQL functions
func LoadGraphSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, GraphFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing graph functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(graphSQL)
	if err != nil {
		return fmt.Errorf("error executing graph SQL: %w", err)
	}

	exist, err := checkFunctions(db, GraphFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL graph functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadVectorsSql(db, force); err != nil {
		return err
	}

	if err := LoadGraphSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
