package main

const missingSecrets = 10
const missingGithubOwner = 11
const missingGithubRepo = 12
const missingLocalRepoRoot = 13
const missingAsset = 14
const invalidOption = 20

const invalidTagConstraintExpression = 100
const noMatchingTag = 110

const invalidGithubTokenOrAccessDenied = 401
const releaseOrAssetNotFound = 404

const failedToDownloadFile = 500
const checksumDoesNotMatch = 510
const errorWhileComputingChecksum = 520
const signatureDoesNotVerify = 530
const failedToUploadFile = 540
const failedToDeleteAsset = 550

const failedToPrepareBuild = 600
const invalidManifest = 610
const failedToPatchProject = 620
const externalToolFailed = 630
