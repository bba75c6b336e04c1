/*
Package reducer contains the reduction strategies. A strategy repeatedly
builds candidates from a syntax tree, asks the run whether they still show
the property and returns the smallest candidate that did.

The list reducers work on flat token, line or character sequences. HDD and
HDDr reduce the tree level by level, Perses and Pardis follow a priority
worklist and GTR applies grammar-aware deletion and substitution templates.
Strategies can be chained into a pipeline.
*/
package reducer
